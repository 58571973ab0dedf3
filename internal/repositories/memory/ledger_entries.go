package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/SscSPs/janseva_bank/internal/utils/pagination"
)

// AppendEntryInTx implements repositories.LedgerEntryWriter.
func (s *Store) AppendEntryInTx(ctx context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	u, err := unitFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !entry.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown entry kind %q", apperrors.ErrValidation, entry.Kind)
	}
	if !entry.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if s.appendHook != nil {
		if err := s.appendHook(entry); err != nil {
			return nil, err
		}
	}

	// An entry is only written under its account's lock.
	if err := s.acquire(ctx, u, entry.AccountID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.nextEntryID++
	entry.ID = s.nextEntryID
	s.mu.Unlock()

	entry.CreatedAt = s.now().UTC()
	u.entries = append(u.entries, entry)

	appended := entry
	return &appended, nil
}

// ListEntriesByAccountID implements repositories.LedgerEntryReader.
func (s *Store) ListEntriesByAccountID(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	return s.sortedEntries(accountID), nil
}

// ListEntriesByAccountIDPage implements repositories.LedgerEntryReader.
func (s *Store) ListEntriesByAccountIDPage(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	entries := s.sortedEntries(accountID)

	if nextToken != nil && *nextToken != "" {
		cursorTime, cursorID, err := pagination.DecodeEntryCursor(*nextToken)
		if err != nil {
			return nil, nil, errors.Join(apperrors.ErrValidation, err)
		}
		start := sort.Search(len(entries), func(i int) bool {
			e := entries[i]
			return e.CreatedAt.Before(cursorTime) || (e.CreatedAt.Equal(cursorTime) && e.ID < cursorID)
		})
		entries = entries[start:]
	}

	if limit <= 0 || len(entries) <= limit {
		return entries, nil, nil
	}
	page := entries[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeEntryCursor(last.CreatedAt, last.ID)
	return page, &token, nil
}

// sortedEntries returns a copy of the account's entries, newest first.
func (s *Store) sortedEntries(accountID string) []domain.LedgerEntry {
	s.mu.RLock()
	entries := make([]domain.LedgerEntry, len(s.entries[accountID]))
	copy(entries, s.entries[accountID])
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries
}
