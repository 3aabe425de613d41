package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_CanAuthenticate(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		expected bool
	}{
		{"active user", User{IsActive: true}, true},
		{"inactive user", User{IsActive: false}, false},
		{"inactive superuser", User{IsActive: false, IsSuperuser: true, IsStaff: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.CanAuthenticate())
		})
	}
}

func TestTimestamps_InitAndTouch(t *testing.T) {
	var ts Timestamps
	ts.InitTimestamps()
	assert.Equal(t, ts.CreatedAt, ts.UpdatedAt)

	created := ts.CreatedAt
	ts.Touch()
	assert.Equal(t, created, ts.CreatedAt)
	assert.False(t, ts.UpdatedAt.Before(created))
}
