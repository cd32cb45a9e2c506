package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMeta(t *testing.T) {
	dest, days := ExtractMeta("A 3-day Paris itinerary:\nDay 1: Louvre")
	assert.Equal(t, "Paris", dest)
	require.NotNil(t, days)
	assert.Equal(t, 3, *days)
}

func TestExtractMetaCaseInsensitive(t *testing.T) {
	dest, _ := ExtractMeta("visiting TOKYO for a week")
	assert.Equal(t, "Tokyo", dest)
}

func TestExtractMetaDayVariants(t *testing.T) {
	for _, text := range []string{"5 days in Rome", "5-day Rome trip", "5 day Rome plan"} {
		_, days := ExtractMeta(text)
		require.NotNil(t, days, "text: %q", text)
		assert.Equal(t, 5, *days)
	}
}

func TestExtractMetaNothingFound(t *testing.T) {
	dest, days := ExtractMeta("somewhere warm, whenever")
	assert.Empty(t, dest)
	assert.Nil(t, days)
}
