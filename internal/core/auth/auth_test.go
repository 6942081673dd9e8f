package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_CurrentUser(t *testing.T) {
	p := NewStaticProvider("owner-1", "Ada")

	u, err := p.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, "owner-1", u.ID)
	assert.Equal(t, "Ada", u.DisplayName)
}

func TestStaticProvider_Unauthenticated(t *testing.T) {
	p := NewStaticProvider("", "")

	_, err := p.CurrentUser()
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUser_Greeting(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"with display name", User{ID: "o", DisplayName: "Ada"}, "Hello, Ada"},
		{"missing display name falls back", User{ID: "o"}, "Hello there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.Greeting())
		})
	}
}
