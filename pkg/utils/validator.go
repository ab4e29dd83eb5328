package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// OAuthScopeHost Google OAuth scope 的主机
const OAuthScopeHost = "www.googleapis.com"

// RegisterValidations 注册自定义校验规则，路由初始化时调用一次
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("oauth_scope", validateOAuthScope)
}

// validateOAuthScope https://www.googleapis.com/auth/<name>
func validateOAuthScope(fl validator.FieldLevel) bool {
	return IsOAuthScope(fl.Field().String())
}

func IsOAuthScope(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme == "https" && u.Host == OAuthScopeHost &&
		strings.HasPrefix(u.Path, "/auth/") && len(u.Path) > len("/auth/")
}

// FormatValidationError 格式化绑定错误，返回给调用方的 detail
func FormatValidationError(err error) string {
	if err == nil {
		return ""
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
		}
		return strings.Join(messages, "; ")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field '%s' should be %s", typeErr.Field, typeErr.Type.String())
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "invalid JSON format"
	}

	return err.Error()
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", field)
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s characters", field, e.Param())
	case "min":
		return fmt.Sprintf("field '%s' must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
	case "email":
		return fmt.Sprintf("field '%s' must be a valid email address", field)
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", field)
	case "oauth_scope":
		return fmt.Sprintf("field '%s' must be an OAuth scope under https://%s/auth/", field, OAuthScopeHost)
	default:
		return fmt.Sprintf("field '%s' validation failed on '%s' tag", field, e.Tag())
	}
}
