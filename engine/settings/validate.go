package settings

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/xhit/go-str2duration/v2"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

var actionDomainRe = regexp.MustCompile(`^(\*\.)?[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)*(:[0-9]{1,5})?$`)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return jsonName(fld)
		})
		mustRegister(v, "duration", validateDuration)
		mustRegister(v, "mongo_uri", validateSchemeURI("mongodb", "mongodb+srv"))
		mustRegister(v, "redis_uri", validateSchemeURI("redis", "rediss"))
		mustRegister(v, "action_domain", validateActionDomain)
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func validateDuration(fl validator.FieldLevel) bool {
	d, err := str2duration.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

func validateSchemeURI(schemes ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		if err != nil || u.Host == "" {
			return false
		}
		for _, s := range schemes {
			if u.Scheme == s {
				return true
			}
		}
		return false
	}
}

// validateActionDomain accepts a bare host, a wildcard subdomain, or a full http(s) origin.
func validateActionDomain(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	}
	return actionDomainRe.MatchString(s)
}

// Validate checks field constraints and cross-field rules and returns every
// problem found, sorted by category and path. An empty result means cfg is valid.
func Validate(cfg *Configuration) ValidationErrors {
	if cfg == nil {
		return ValidationErrors{newFieldError(RootPath, "configuration is required")}
	}
	var out ValidationErrors
	if err := getValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return ValidationErrors{newFieldError(RootPath, "%v", err)}
		}
		for _, fe := range verrs {
			path := fieldPath(fe.Namespace())
			out = append(out, newFieldError(path, "%s", describe(fe)))
		}
	}
	for _, rule := range rules {
		out = append(out, rule(cfg)...)
	}
	return out.sorted()
}

// fieldPath turns a validator namespace into a json path:
// "Configuration.mcpServers.Servers[0].url" -> "mcpServers[0].url".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ReplaceAll(ns, ".Servers[", "[")
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	param := fe.Param()
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", name, param)
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", name, param)
		}
		return fmt.Sprintf("%s must be at least %s", name, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", name, param)
		}
		return fmt.Sprintf("%s must be at most %s", name, param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", name, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.Join(strings.Fields(param), ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	case "hostname_rfc1123":
		return fmt.Sprintf("%s must be a valid hostname", name)
	case "duration":
		return fmt.Sprintf("%s must be a positive duration such as 15m or 7d", name)
	case "mongo_uri":
		return fmt.Sprintf("%s must be a mongodb:// or mongodb+srv:// connection string", name)
	case "redis_uri":
		return fmt.Sprintf("%s must be a redis:// or rediss:// connection string", name)
	case "action_domain":
		return fmt.Sprintf("%s must be a domain, a *.wildcard domain, or an http(s) origin", name)
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}
