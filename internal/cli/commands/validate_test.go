package commands

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand(t *testing.T) {
	setupProject(t, validSource)

	stdout, stderr, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "terms.yaml is valid")
	assert.Contains(t, stdout, "Terms:")
	assert.Contains(t, stdout, "Redirects:")
	assert.Empty(t, stderr)
}

func TestValidateCommandSchemaErrors(t *testing.T) {
	setupProject(t, strings.Replace(validSource, "definition: Doing a long chain", "definition: Too short.\n    x-note: Doing a long chain", 1))

	_, stderr, err := execute(t, "validate")
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, stderr, "SchemaViolation term 0")
	assert.Contains(t, stderr, "terms.yaml:")
	assert.Contains(t, stderr, "VALIDATION FAILED")
}

func TestValidateCommandNormalizeErrors(t *testing.T) {
	source := strings.Replace(validSource,
		"definition: Doing a long chain of seemingly unrelated tasks that must be finished before the task you set out to do.",
		"definition: Too short.", 1)
	source = strings.Replace(source, "slug: bikeshedding\n", "slug: Bike_Shedding\n", 1)
	setupProject(t, source)

	_, stderr, err := execute(t, "validate")
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, stderr, "DefinitionTooShort term 0")
	assert.Contains(t, stderr, "SlugFormatViolation term 1")
	assert.Contains(t, stderr, "terms.yaml:3")
}

func TestValidateCommandWarnings(t *testing.T) {
	setupProject(t, strings.Replace(validSource, "see_also: [bikeshedding]", "see_also: [bikesheddin]", 1))

	stdout, stderr, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid")
	assert.Contains(t, stderr, "UnresolvedSeeAlso term 0")
	assert.Contains(t, stderr, "Did you mean: bikeshedding?")
}

func TestValidateCommandJSON(t *testing.T) {
	setupProject(t, validSource)

	stdout, _, err := execute(t, "validate", "--json")
	require.NoError(t, err)

	var report struct {
		Status string         `json:"status"`
		Extra  map[string]any `json:"extra"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, "success", report.Status)
	assert.EqualValues(t, 2, report.Extra["terms"])
	assert.EqualValues(t, 1, report.Extra["redirects"])
}

func TestValidateCommandJSONFailure(t *testing.T) {
	setupProject(t, validSource+"  bikeshedding: yak-shaving\n")

	stdout, _, err := execute(t, "validate", "--json")
	require.ErrorIs(t, err, ErrValidationFailed)

	var report struct {
		Status string `json:"status"`
		Errors []struct {
			Kind string `json:"kind"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, "error", report.Status)
	require.NotEmpty(t, report.Errors)
	assert.Equal(t, "RedirectConflict", report.Errors[0].Kind)
}

func TestValidateCommandMissingSource(t *testing.T) {
	setupProject(t, "")

	_, stderr, err := execute(t, "validate")
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, stderr, "SourceReadFailure")
}
