package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInScope_SameHost(t *testing.T) {
	s, err := New("https://example.com/", false, nil)
	require.NoError(t, err)

	assert.True(t, s.IsInScope("https://example.com/a"))
	assert.False(t, s.IsInScope("https://other.com/a"))
}

func TestIsInScope_Subdomains(t *testing.T) {
	without, err := New("https://example.com/", false, nil)
	require.NoError(t, err)
	assert.False(t, without.IsInScope("https://api.example.com/a"))

	with, err := New("https://example.com/", true, nil)
	require.NoError(t, err)
	assert.True(t, with.IsInScope("https://api.example.com/a"))
	assert.False(t, with.IsInScope("https://notexample.com/a"))
}

func TestIsInScope_StaticExtension(t *testing.T) {
	s, err := New("https://example.com/", false, nil)
	require.NoError(t, err)

	assert.False(t, s.IsInScope("https://example.com/app.js"))
	assert.False(t, s.IsInScope("https://example.com/logo.PNG"))
	assert.True(t, s.IsInScope("https://example.com/page.html"))
}

func TestIsInScope_ExcludePattern(t *testing.T) {
	s, err := New("https://example.com/", false, []string{`/logout`})
	require.NoError(t, err)

	assert.False(t, s.IsInScope("https://example.com/logout"))
	assert.True(t, s.IsInScope("https://example.com/login"))
}

func TestIsInScope_NonHTTPScheme(t *testing.T) {
	s, err := New("https://example.com/", false, nil)
	require.NoError(t, err)

	assert.False(t, s.IsInScope("ftp://example.com/a"))
}
