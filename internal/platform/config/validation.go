package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the package-level validator instance.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the loaded configuration. The daemon refuses to start
// on an invalid config rather than limping along with partial settings.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = describeFieldError(fe)
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

// fieldErrorFormats maps validator tags to message templates taking the
// field path and the tag parameter.
var fieldErrorFormats = map[string]string{
	"required":    "%s is required",
	"required_if": "%s is required when %s",
	"min":         "%s must be at least %s",
	"max":         "%s must be at most %s",
	"oneof":       "%s must be one of: %s",
	"url":         "%s must be a valid URL",
}

// describeFieldError renders one field error in the dotted lowercase
// shape users see in YAML and env vars, e.g. sound.driver.
func describeFieldError(fe validator.FieldError) string {
	field := configPath(fe.Namespace())

	format, ok := fieldErrorFormats[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}

	if strings.Count(format, "%s") == 1 {
		return fmt.Sprintf(format, field)
	}

	return fmt.Sprintf(format, field, fe.Param())
}

// configPath strips the root struct name from a validator namespace and
// lowercases the rest: "Config.Sound.Driver" becomes "sound.driver".
func configPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		rest = namespace
	}

	return strings.ToLower(rest)
}
