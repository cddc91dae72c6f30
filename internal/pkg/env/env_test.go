package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	Env = map[string]string{"FROM_FILE": "file"}
	t.Cleanup(func() { Env = nil })
	t.Setenv("FROM_OS", "os")

	assert.Equal(t, "file", GetEnv("FROM_FILE", "def"))
	assert.Equal(t, "os", GetEnv("FROM_OS", "def"))
	assert.Equal(t, "def", GetEnv("MISSING_KEY_FOR_TEST", "def"))
}

func TestTypedGetters(t *testing.T) {
	Env = map[string]string{
		"WORKERS":   "4",
		"BAD_INT":   "four",
		"DELAY":     "250ms",
		"BAD_DELAY": "soon",
	}
	t.Cleanup(func() { Env = nil })

	assert.Equal(t, 4, GetInt("WORKERS", 1))
	assert.Equal(t, 1, GetInt("BAD_INT", 1))
	assert.Equal(t, 7, GetInt("MISSING_KEY_FOR_TEST", 7))
	assert.Equal(t, 250*time.Millisecond, GetDuration("DELAY", time.Second))
	assert.Equal(t, time.Second, GetDuration("BAD_DELAY", time.Second))
}
