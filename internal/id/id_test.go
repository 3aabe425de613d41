package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Uniqueness(t *testing.T) {
	// Generate many keys and verify they're unique
	keys := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		key, err := Key()
		require.NoError(t, err)
		assert.False(t, keys[key], "key should be unique: %s", key)
		keys[key] = true
	}

	assert.Len(t, keys, count)
}

func TestKey_Format(t *testing.T) {
	key, err := Key()
	require.NoError(t, err)

	assert.Len(t, key, KeyLength)
	assert.True(t, IsKey(key), "key should be lowercase hex: %s", key)
}

func TestMustKey(t *testing.T) {
	assert.True(t, IsKey(MustKey()))
}

func TestIsKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid", "9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b", true},
		{"too short", "9944b091", false},
		{"uppercase", "9944B09199C62BCF9418AD846DD0E4BBDFC6EE4B", false},
		{"non hex", "zz44b09199c62bcf9418ad846dd0e4bbdfc6ee4b", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsKey(tt.input))
		})
	}
}
