package validation

import (
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/delivery/internal/errors"
)

func TestNotBlank(t *testing.T) {
	assert.NoError(t, NotBlank.Validate("hello"))
	assert.Error(t, NotBlank.Validate("   "))

	// String rules skip empty values; rejecting "" is Required's job, so
	// handlers always pair NotBlank with Required.
	assert.NoError(t, NotBlank.Validate(""))

	type form struct {
		Name string
	}
	f := form{Name: ""}
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, NotBlank),
	)
	assert.Error(t, err)
}

func TestPhone(t *testing.T) {
	assert.NoError(t, Phone.Validate("+66 81-234-5678"))
	assert.NoError(t, Phone.Validate("0812345678"))
	assert.Error(t, Phone.Validate("not-a-phone"))
	assert.Error(t, Phone.Validate("+"))
}

func TestNoWhitespace(t *testing.T) {
	assert.NoError(t, NoWhitespace.Validate("clean"))
	assert.Error(t, NoWhitespace.Validate(" padded "))
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(NotBlank.Validate("   "))
	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}
