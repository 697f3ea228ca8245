package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string `json:"full_name" validate:"required,min=2,max=5"`
	Email  string `json:"email" validate:"required,email"`
	Adults int    `json:"adults" validate:"min=1,max=3"`
	Date   string `json:"tour_date" validate:"required,datetime=2006-01-02"`
	Kind   string `json:"kind" validate:"omitempty,oneof=a b"`
}

func TestFieldErrorsUsesJSONNames(t *testing.T) {
	fields, err := FieldErrors(sample{Name: "x", Email: "nope", Adults: 9, Date: "16/06/2026", Kind: "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"full_name": "must be at least 2 characters",
		"email":     "must be a valid email address",
		"adults":    "must be at most 3",
		"tour_date": "must be a date in YYYY-MM-DD format",
		"kind":      "must be one of: a b",
	}, fields)
}

func TestFieldErrorsValid(t *testing.T) {
	fields, err := FieldErrors(sample{Name: "Jane", Email: "j@example.com", Adults: 2, Date: "2026-06-16"})
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestFieldErrorsRequired(t *testing.T) {
	fields, err := FieldErrors(sample{Adults: 1})
	require.NoError(t, err)
	assert.Equal(t, "is required", fields["full_name"])
	assert.Equal(t, "is required", fields["email"])
	assert.Equal(t, "is required", fields["tour_date"])
}
