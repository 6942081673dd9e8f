// Package actionlink handles one-shot account action links (email
// verification, password reset, email recovery).
//
// A link carries its action in the "mode" query parameter, an opaque
// one-time code in "oobCode", and an optional "continueUrl" to return to
// afterwards. The handler is a single dispatch, not part of the data-sync
// core: parse, apply the code through the identity provider, redirect.
package actionlink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Parse and dispatch errors.
var (
	ErrMissingMode   = errors.New("link is missing the mode parameter")
	ErrMissingCode   = errors.New("link is missing the oobCode parameter")
	ErrUnknownMode   = errors.New("unknown link mode")
	ErrWrongLinkType = errors.New("this is not an email verification link")
)

// DefaultContinueURL is where a handled link redirects when the link
// itself does not carry a continueUrl.
const DefaultContinueURL = "https://tasktide.app/dashboard"

// Mode identifies the account action a link performs.
type Mode string

const (
	ModeVerifyEmail   Mode = "verifyEmail"
	ModeResetPassword Mode = "resetPassword"
	ModeRecoverEmail  Mode = "recoverEmail"
)

// IsValid checks if the mode is a supported value.
func (m Mode) IsValid() bool {
	switch m {
	case ModeVerifyEmail, ModeResetPassword, ModeRecoverEmail:
		return true
	default:
		return false
	}
}

// Link is a parsed action link.
type Link struct {
	Mode        Mode
	Code        string
	ContinueURL string
}

// RedirectURL returns the link's continue URL, or DefaultContinueURL
// when the link does not carry one.
func (l Link) RedirectURL() string {
	if l.ContinueURL == "" {
		return DefaultContinueURL
	}
	return l.ContinueURL
}

// Parse extracts the action link parameters from a raw URL.
func Parse(rawURL string) (Link, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Link{}, fmt.Errorf("parse action link: %w", err)
	}

	q := u.Query()
	l := Link{
		Mode:        Mode(q.Get("mode")),
		Code:        q.Get("oobCode"),
		ContinueURL: q.Get("continueUrl"),
	}

	if l.Mode == "" {
		return Link{}, ErrMissingMode
	}
	if !l.Mode.IsValid() {
		return Link{}, fmt.Errorf("%w: %q", ErrUnknownMode, l.Mode)
	}
	if l.Code == "" {
		return Link{}, ErrMissingCode
	}

	return l, nil
}

// Applier applies one-time action codes through the identity provider.
type Applier interface {
	// ApplyCode consumes the one-time code for the given action.
	ApplyCode(ctx context.Context, mode Mode, code string) error
}

// Handler dispatches parsed links to the applier.
type Handler struct {
	applier Applier
}

// NewHandler creates a Handler backed by the given applier.
func NewHandler(applier Applier) *Handler {
	return &Handler{applier: applier}
}

// Handle applies the link's action and returns the redirect target.
func (h *Handler) Handle(ctx context.Context, l Link) (string, error) {
	if err := h.applier.ApplyCode(ctx, l.Mode, l.Code); err != nil {
		return "", fmt.Errorf("apply %s code: %w", l.Mode, err)
	}
	return l.RedirectURL(), nil
}

// Verify handles a link on the email-verification landing. Links of any
// other mode are rejected with ErrWrongLinkType before the code is
// touched, so a reset link can never be spent by the wrong flow.
func (h *Handler) Verify(ctx context.Context, l Link) (string, error) {
	if l.Mode != ModeVerifyEmail {
		return "", fmt.Errorf("%w (got mode %q)", ErrWrongLinkType, l.Mode)
	}
	return h.Handle(ctx, l)
}
