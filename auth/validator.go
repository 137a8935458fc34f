package auth

import (
	"clipchat/errors"
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type SignupRequest struct {
	Username string `validate:"required,min=3,max=32,alphanum"`
	Password string `validate:"required,min=12,max=72"`
	Confirm  string `validate:"required"`
}

// ValidateSignup checks field shape first, then the password rules.
// Shape errors are cheap; complexity and equality run before any
// expensive hashing happens upstream.
func ValidateSignup(req SignupRequest) error {
	if err := validate.Struct(req); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			if fieldErr.Field() == "Username" {
				return fmt.Errorf("%w: %v", errors.ErrInvalidUsername, err)
			}
		}
		return fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}
	if req.Password != req.Confirm {
		return errors.ErrPasswordMismatch
	}
	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

func isPasswordComplex(s string) bool {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
