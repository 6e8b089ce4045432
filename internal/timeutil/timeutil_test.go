package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationOrDefault(t *testing.T) {
	assert.Equal(t, 5*time.Second, ParseDurationOrDefault("", 5*time.Second))
	assert.Equal(t, 5*time.Second, ParseDurationOrDefault("nope", 5*time.Second))
	assert.Equal(t, 5*time.Second, ParseDurationOrDefault("-1s", 5*time.Second))
	assert.Equal(t, 0*time.Second, ParseDurationOrDefault("0s", 5*time.Second))
	assert.Equal(t, 250*time.Millisecond, ParseDurationOrDefault(" 250ms ", time.Second))
}

func TestParseOptional(t *testing.T) {
	d, ok, err := ParseOptional("")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, d)

	d, ok, err = ParseOptional("2m")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Minute, d)

	_, _, err = ParseOptional("-2m")
	assert.Error(t, err)
	_, _, err = ParseOptional("2 minutes")
	assert.Error(t, err)
}
