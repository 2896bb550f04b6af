package main

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func TestParseStatusFlag(t *testing.T) {
	status, err := parseStatusFlag("pending")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, status)

	status, err = parseStatusFlag("")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, status)

	status, err = parseStatusFlag("failed")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, status)

	status, err = parseStatusFlag("sent")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, status)

	_, err = parseStatusFlag("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijk", 10))

	// Multibyte names must not be cut mid-rune.
	got := truncate("Müller Spedition GmbH & Co KG", 10)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Müller ...", got)
}
