package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("decimal", validDecimal)
	}
}

// validDecimal accepts any string that parses as a decimal number. Amount
// fields use it so malformed values fail at binding instead of reaching the
// service layer. Empty strings pass so omitempty keeps working.
func validDecimal(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}
