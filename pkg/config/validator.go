package config

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("http_origin", validateOrigin)
}

// validateOrigin accepts "*" or a bare scheme://host[:port] origin.
func validateOrigin(fl validator.FieldLevel) bool {
	origin := strings.TrimSpace(fl.Field().String())
	if origin == "*" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != "" && (u.Path == "" || u.Path == "/") && u.RawQuery == "" && u.Fragment == ""
}
