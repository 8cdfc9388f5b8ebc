package validation_test

import (
	"testing"

	domainerrors "github.com/profilehue/profilehue-server/internal/errors"
	"github.com/profilehue/profilehue-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoreRequest struct {
	Colors []string `json:"colors" validate:"required,min=1,max=64,dive,rgbhex"`
}

func TestValidator_Var_Handle(t *testing.T) {
	v := validation.New()

	tests := []struct {
		handle string
		valid  bool
	}{
		{"jack", true},
		{"Some_User_123", true},
		{"a", true},
		{"fifteen_chars_x", true},
		{"sixteen_chars_xy", false},
		{"", false},
		{"has space", false},
		{"@jack", false},
		{"dash-ed", false},
	}

	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			err := v.Var("handle", tt.handle, "required,handle")
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestValidator_Validate_Colors(t *testing.T) {
	v := validation.New()

	t.Run("valid colors", func(t *testing.T) {
		assert.NoError(t, v.Validate(scoreRequest{Colors: []string{"#000000", "#FFFFFF"}}))
	})

	t.Run("shorthand rejected", func(t *testing.T) {
		err := v.Validate(scoreRequest{Colors: []string{"#000000", "#fff"}})
		require.Error(t, err)

		var domainErr *domainerrors.Error
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

		details, ok := domainErr.Details.(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "must be a #rrggbb color", details["scoreRequest.colors[1]"])
	})

	t.Run("empty list rejected", func(t *testing.T) {
		assert.Error(t, v.Validate(scoreRequest{}))
	})
}

func TestIsHandle(t *testing.T) {
	assert.True(t, validation.IsHandle("jack"))
	assert.False(t, validation.IsHandle("jack!"))
}
