package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("NC_INT", " 42 ")
	t.Setenv("NC_BAD_INT", "forty")
	t.Setenv("NC_DURATION", "1500ms")
	t.Setenv("NC_SECONDS", "30")
	t.Setenv("NC_BOOL", "true")
	t.Setenv("NC_EMPTY", "")
	t.Setenv("NC_LIST", "a, b,,c ")

	assert.Equal(t, 42, GetEnvAsInt("NC_INT", 1))
	assert.Equal(t, 1, GetEnvAsInt("NC_BAD_INT", 1))
	assert.Equal(t, int64(42), GetEnvAsInt64("NC_INT", 0))
	assert.Equal(t, uint64(42), GetEnvAsUint64("NC_INT", 0))
	assert.Equal(t, 1500*time.Millisecond, GetEnvAsDuration("NC_DURATION", 0))
	assert.Equal(t, 30*time.Second, GetEnvAsDuration("NC_SECONDS", 0))
	assert.Equal(t, time.Second, GetEnvAsDuration("NC_UNSET", time.Second))
	assert.True(t, GetEnvAsBool("NC_BOOL", false))
	assert.Equal(t, "fallback", GetEnvAsString("NC_EMPTY", "fallback"))
	assert.Equal(t, []string{"a", "b", "c"}, GetEnvAsStringSlice("NC_LIST", nil))
	assert.Equal(t, []string{"*"}, GetEnvAsStringSlice("NC_UNSET", []string{"*"}))
}

func TestValidateNotBlank(t *testing.T) {
	v := NewValidator()
	type titled struct {
		Title string `validate:"notblank"`
	}

	assert.NoError(t, v.Struct(titled{Title: "x"}))
	assert.Error(t, v.Struct(titled{Title: ""}))
	assert.Error(t, v.Struct(titled{Title: " \t\n"}))
	assert.True(t, IsBlank("  "))
}
