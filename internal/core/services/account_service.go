package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	portsrepo "github.com/SscSPs/janseva_bank/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/janseva_bank/internal/core/ports/services"
	"github.com/SscSPs/janseva_bank/internal/dto"
	"github.com/SscSPs/janseva_bank/internal/utils"
	"github.com/google/uuid"
)

const minPasswordLength = 8

type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates the registration and account lookup service.
func NewAccountService(repo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: repo}
}

func (s *accountService) Register(ctx context.Context, req dto.RegisterRequest) (*domain.Account, error) {
	handle := strings.TrimSpace(req.OwnerHandle)
	if handle == "" {
		return nil, fmt.Errorf("%w: owner handle is required", apperrors.ErrValidation)
	}
	if err := domain.ValidateNationalID(req.NationalID); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password", slog.String("owner_handle", handle))
		return nil, fmt.Errorf("%w: failed to hash password", apperrors.ErrInternal)
	}

	account, err := s.accountRepo.CreateAccount(ctx, domain.Account{
		ID:           uuid.NewString(),
		OwnerHandle:  handle,
		NationalID:   req.NationalID,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) || errors.Is(err, apperrors.ErrValidation) {
			s.LogInfo(ctx, "Registration rejected", slog.String("owner_handle", handle), slog.String("reason", err.Error()))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to create account", slog.String("owner_handle", handle))
		return nil, fmt.Errorf("%w: failed to create account: %w", apperrors.ErrInternal, err)
	}

	s.LogInfo(ctx, "Account registered", slog.String("account_id", account.ID), slog.String("owner_handle", handle))
	return account, nil
}

// Authenticate returns apperrors.ErrInvalidCredentials for both an unknown
// handle and a wrong password.
func (s *accountService) Authenticate(ctx context.Context, ownerHandle string, password string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByHandle(ctx, strings.TrimSpace(ownerHandle))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "Login for unknown handle", slog.String("owner_handle", ownerHandle))
			return nil, apperrors.ErrInvalidCredentials
		}
		s.LogError(ctx, err, "Failed to look up account for login", slog.String("owner_handle", ownerHandle))
		return nil, fmt.Errorf("%w: failed to look up account: %w", apperrors.ErrInternal, err)
	}

	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		s.LogDebug(ctx, "Login with wrong password", slog.String("account_id", account.ID))
		return nil, apperrors.ErrInvalidCredentials
	}
	return account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to get account", slog.String("account_id", accountID))
		return nil, fmt.Errorf("%w: failed to get account: %w", apperrors.ErrInternal, err)
	}
	return account, nil
}

func (s *accountService) GetAccountByHandle(ctx context.Context, ownerHandle string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByHandle(ctx, ownerHandle)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to get account by handle", slog.String("owner_handle", ownerHandle))
		return nil, fmt.Errorf("%w: failed to get account: %w", apperrors.ErrInternal, err)
	}
	return account, nil
}
