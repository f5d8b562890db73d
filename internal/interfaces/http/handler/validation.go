package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/satguard/backend/internal/domain/supplier"
)

// RegisterValidators installs custom binding rules on gin's validator.
// The "rfc" rule accepts a well-formed Mexican RFC (12 or 13
// alphanumeric chars) after normalization.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("rfc", func(fl validator.FieldLevel) bool {
		return supplier.ValidRFC(supplier.NormalizeRFC(fl.Field().String()))
	})
}
