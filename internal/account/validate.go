package account

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handlePattern.MatchString(fl.Field().String())
	})
	return v
}

type Credentials struct {
	Handle   string `json:"handle" validate:"required,handle"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (c Credentials) Validate() error {
	return validate.Struct(c)
}
