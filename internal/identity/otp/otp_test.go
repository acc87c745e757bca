package otp

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9]{6}$`)
	seen := make(map[string]struct{})
	for range 200 {
		code, err := Generate()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 150)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("012345", "012345"))
	assert.False(t, Equal("012345", "12345"))
	assert.False(t, Equal("012345", "012346"))
	assert.False(t, Equal("012345", ""))
}
