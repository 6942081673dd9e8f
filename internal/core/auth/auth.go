// Package auth defines the authentication collaborator interface.
//
// TaskTide never talks to the identity provider directly; it only needs a
// stable owner identifier to scope records. An absent user suppresses all
// subscriptions and writes rather than failing deeper in the stack.
package auth

import "errors"

// ErrUnauthenticated is returned when no signed-in user is available.
var ErrUnauthenticated = errors.New("no signed-in user")

// User is the signed-in identity exposed by the provider.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// Greeting returns a salutation for the user, falling back to a generic
// greeting when no display name is set.
func (u User) Greeting() string {
	if u.DisplayName == "" {
		return "Hello there"
	}
	return "Hello, " + u.DisplayName
}

// Provider exposes the current signed-in user.
type Provider interface {
	// CurrentUser returns the signed-in user, or ErrUnauthenticated when
	// nobody is signed in.
	CurrentUser() (User, error)
}

// StaticProvider serves a fixed identity, typically sourced from
// configuration or the environment.
type StaticProvider struct {
	user User
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider creates a provider for the given identity. An empty
// ID yields an unauthenticated provider.
func NewStaticProvider(id, displayName string) *StaticProvider {
	return &StaticProvider{user: User{ID: id, DisplayName: displayName}}
}

// CurrentUser returns the configured user or ErrUnauthenticated.
func (p *StaticProvider) CurrentUser() (User, error) {
	if p == nil || p.user.ID == "" {
		return User{}, ErrUnauthenticated
	}
	return p.user, nil
}
