package errors

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorMessages(t *testing.T) {
	err := NewValidationError("username", "is required", nil)
	assert.Equal(t, "field 'username' is required", err.Error())

	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *err)
	assert.Equal(t, "validation failed: username is required", errs.Error())

	errs = append(errs, *NewValidationError("name", "is required", nil))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
}

func TestFromBindingError(t *testing.T) {
	type signup struct {
		Username string `validate:"required,min=3,max=20,alphanum"`
		Name     string `validate:"required"`
	}

	v := validator.New()
	err := v.Struct(signup{Username: "a!"})
	require.Error(t, err)

	errs := FromBindingError(err)
	require.Len(t, errs, 2)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "must be at least 3", byField["Username"].Message)
	assert.Equal(t, "min", byField["Username"].Rule)
	assert.Equal(t, "is required", byField["Name"].Message)
}

func TestFromBindingErrorNonValidator(t *testing.T) {
	errs := FromBindingError(assert.AnError)
	require.Len(t, errs, 1)
	assert.Equal(t, "body", errs[0].Field)
	assert.Equal(t, "json", errs[0].Rule)
}
