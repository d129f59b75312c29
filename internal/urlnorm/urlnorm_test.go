package urlnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Idempotent(t *testing.T) {
	cases := []string{
		"HTTPS://Example.com:443/Path/?b=2&a=1#frag",
		"http://example.com:80/",
		"https://example.com/a/b/",
		"https://example.com/a?z=&m=1",
	}
	for _, c := range cases {
		n1, err := Normalize(c)
		require.NoError(t, err)
		n2, err := Normalize(n1)
		require.NoError(t, err)
		assert.Equal(t, n1, n2, "normalize(normalize(u)) must equal normalize(u) for %q", c)
	}
}

func TestNormalize_DropsDefaultPortAndFragment(t *testing.T) {
	n, err := Normalize("HTTPS://Example.com:443/Path#section")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/Path", n)
}

func TestNormalize_KeepsNonDefaultPort(t *testing.T) {
	n, err := Normalize("https://example.com:8443/a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com:8443/a", n)
}

func TestNormalize_SortsQueryPreservingBlanks(t *testing.T) {
	n, err := Normalize("https://example.com/a?b=2&a=1&c=")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a?a=1&b=2&c=", n)
}

func TestNormalize_StripsTrailingSlashUnlessRoot(t *testing.T) {
	n, err := Normalize("https://example.com/a/b/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a/b", n)

	root, err := Normalize("https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", root)
}
