package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Level string `json:"permission_level" validate:"required,oneof=basic advanced"`
	Name  string `json:"name" validate:"max=5"`
}

func TestStruct_Fields(t *testing.T) {
	err := Struct(sample{Level: "admin", Name: "too-long-name"})
	require.Error(t, err)

	fields := Fields(err)
	require.Equal(t, "must be one of: basic advanced", fields["permission_level"])
	require.Equal(t, "value is too long (maximum 5)", fields["name"])
}

func TestStruct_OK(t *testing.T) {
	require.NoError(t, Struct(sample{Level: "basic"}))
}

func TestFields_NotValidationError(t *testing.T) {
	require.Nil(t, Fields(errors.New("other")))
}
