package flags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSlice(t *testing.T) {
	var s StringSlice
	require.NoError(t, s.Set("a.yaml"))
	require.NoError(t, s.Set("b.yaml, c.yaml"))
	require.NoError(t, s.Set(""))

	assert.Equal(t, StringSlice{"a.yaml", "b.yaml", "c.yaml"}, s)
	assert.Equal(t, "a.yaml,b.yaml,c.yaml", s.String())
	assert.Equal(t, "stringSlice", s.Type())
}
