package config

import "github.com/pkg/errors"

// NewConfigValidationError returns an error specific to a failure to validate a config field.
func NewConfigValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}
