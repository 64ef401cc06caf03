package validator

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Validator is a struct that provides methods for struct validation using the underlying validator library.
type Validator struct {
	cli *validator.Validate
}

// ValidationError represents an error encountered during validation of a struct field.
type ValidationError struct {
	Field   string
	Tag     string
	Message interface{}
}

// MaxCategoryLength is the longest excuse category accepted by the category rule.
const MaxCategoryLength = 64

func (v *Validator) formatError(err error) []ValidationError {
	errors := make([]ValidationError, 0)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return append(errors, ValidationError{Message: err.Error()})
	}
	for _, err := range verrs {
		msg := err.Error()
		errors = append(errors, ValidationError{
			Field:   err.StructField(),
			Tag:     err.Tag(),
			Message: msg,
		})
	}

	return errors
}

// ValidateStruct validates the provided struct using the underlying validator and returns a slice of validation errors.
func (v *Validator) ValidateStruct(s interface{}) []ValidationError {
	err := v.cli.Struct(s)
	if err != nil {
		return v.formatError(err)
	}
	return nil
}

// Validate checks the provided value against the specified validation tags and returns a slice of validation errors.
func (v *Validator) Validate(value interface{}, tag string) []ValidationError {
	err := v.cli.Var(value, tag)
	if err != nil {
		return v.formatError(err)
	}
	return nil
}

// category accepts free-form excuse categories made of letters, digits,
// spaces, hyphens, underscores and apostrophes. Combining marks count as
// part of a letter.
func category(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len([]rune(s)) > MaxCategoryLength {
		return false
	}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
		case r == ' ', r == '-', r == '_', r == '\'':
		default:
			return false
		}
	}
	return true
}

// New initializes and returns a new instance of the Validator
func New() *Validator {
	cli := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for empty tags or nil functions.
	_ = cli.RegisterValidation("category", category)
	return &Validator{
		cli: cli,
	}
}
