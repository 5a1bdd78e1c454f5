package manifest

import (
	"errors"
	"fmt"
)

var ErrInvalidDescriptor = errors.New("invalid stack descriptor")

type ConfigError struct {
	Subject string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidDescriptor, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidDescriptor
}

func configError(subject, message string) *ConfigError {
	return &ConfigError{Subject: subject, Message: message}
}
