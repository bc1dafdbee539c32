package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("ledgerdate", func(fl validator.FieldLevel) bool {
			_, err := ParseDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		})
		_ = v.RegisterValidation("txtype", func(fl validator.FieldLevel) bool {
			return TransactionType(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

// Validate checks the user-supplied fields. Category is not checked since it
// is derived. Errors wrap ErrInvalidTransaction and one field sentinel.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, ErrEmptyDescription)
	}

	err := getValidator().Struct(t)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}

	fe := verrs[0]
	var cause error
	switch fe.StructField() {
	case "Date":
		cause = fmt.Errorf("%w: %q", ErrInvalidDate, t.Date)
	case "Description":
		if fe.Tag() == "max" {
			cause = ErrDescriptionTooLong
		} else {
			cause = ErrEmptyDescription
		}
	case "Amount":
		cause = ErrInvalidAmount
	case "Type":
		cause = fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	default:
		cause = errors.New(fe.Error())
	}
	return fmt.Errorf("%w: %w", ErrInvalidTransaction, cause)
}
