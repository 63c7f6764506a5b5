package lib

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// NewID generates a UUID version 4 string (RFC 4122)
func NewID() string {
	return uuid.NewString()
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks v against its `validate` struct tags.
func Validate(v interface{}) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate.Struct(v)
}
