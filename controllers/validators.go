package controllers

import (
	"cityfix-be/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the closed-enum tags used in request bodies.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	rules := map[string]validator.Func{
		"issuestatus": func(fl validator.FieldLevel) bool {
			_, err := models.ParseStatus(fl.Field().String())
			return err == nil
		},
		"role": func(fl validator.FieldLevel) bool {
			_, err := models.ParseRole(fl.Field().String())
			return err == nil && fl.Field().String() != ""
		},
		"purpose": func(fl validator.FieldLevel) bool {
			_, err := models.ParsePurpose(fl.Field().String())
			return err == nil
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
