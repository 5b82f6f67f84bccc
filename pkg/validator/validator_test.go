package validator_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innerbloom/billing/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	require.NoError(t, validator.Apply())
	require.NoError(t, validator.Apply(validator.RequiredString("name", "x")))

	err := validator.Apply(
		validator.RequiredString("name", "  "),
		validator.InList("plan", "WEEK", []string{"MONTH", "YEAR"}),
		validator.MaxLenString("reason", "ok", 10),
	)
	require.Error(t, err)
	assert.True(t, validator.IsValidationError(err))

	ve := validator.ExtractValidationErrors(fmt.Errorf("wrapped: %w", err))
	require.Len(t, ve, 2)
	assert.True(t, ve.Has("name"))
	assert.True(t, ve.Has("plan"))
	assert.False(t, ve.Has("reason"))
	assert.Equal(t, "in_list", ve[1].Code)
	assert.Equal(t, map[string][]string{
		"name": {"field is required"},
		"plan": {"must be one of: [MONTH YEAR]"},
	}, ve.Fields())
	assert.Contains(t, err.Error(), "plan: must be one of")

	assert.Nil(t, validator.ExtractValidationErrors(nil))
	assert.False(t, validator.IsValidationError(fmt.Errorf("plain")))
}

func TestMaxLenString_CountsRunes(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validator.Apply(validator.MaxLenString("r", strings.Repeat("é", 5), 5)))
	assert.Error(t, validator.Apply(validator.MaxLenString("r", strings.Repeat("é", 6), 5)))
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"a@example.com", "first.last+tag@sub.example.org"} {
		assert.NoError(t, validator.Apply(validator.ValidEmail("email", ok)), ok)
	}
	for _, bad := range []string{"", "plain", "a@localhost", "a@.com", "a@example..com", "Name <a@example.com>", "@example.com"} {
		assert.Error(t, validator.Apply(validator.ValidEmail("email", bad)), bad)
	}
}

func TestValidURL(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"https://app.innerbloom.io/billing/success", "http://localhost:3000/return?x=1"} {
		assert.NoError(t, validator.Apply(validator.ValidURL("url", ok)), ok)
	}
	for _, bad := range []string{"", "/relative", "ftp://files.example.com", "javascript:alert(1)", "https://"} {
		assert.Error(t, validator.Apply(validator.ValidURL("url", bad)), bad)
	}
}
