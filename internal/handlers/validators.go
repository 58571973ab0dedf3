package handlers

import (
	"sync"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidatorsOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request DTOs to
// gin's validator. It is safe to call more than once.
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("nationalid", func(fl validator.FieldLevel) bool {
			return domain.ValidateNationalID(fl.Field().String()) == nil
		})
	})
}
