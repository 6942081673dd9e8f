package actionlink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeApplier struct {
	applied []Mode
	err     error
}

func (f *fakeApplier) ApplyCode(_ context.Context, mode Mode, _ string) error {
	f.applied = append(f.applied, mode)
	return f.err
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		want    Link
		wantErr error
	}{
		{
			"verify link with continue url",
			"https://tasktide.app/verify?mode=verifyEmail&oobCode=abc123&continueUrl=https%3A%2F%2Ftasktide.app%2Fwelcome",
			Link{Mode: ModeVerifyEmail, Code: "abc123", ContinueURL: "https://tasktide.app/welcome"},
			nil,
		},
		{
			"reset link without continue url",
			"https://tasktide.app/verify?mode=resetPassword&oobCode=xyz",
			Link{Mode: ModeResetPassword, Code: "xyz"},
			nil,
		},
		{"missing mode", "https://tasktide.app/verify?oobCode=abc", Link{}, ErrMissingMode},
		{"missing code", "https://tasktide.app/verify?mode=verifyEmail", Link{}, ErrMissingCode},
		{"unknown mode", "https://tasktide.app/verify?mode=deleteAccount&oobCode=abc", Link{}, ErrUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.rawURL)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandle_RedirectsToContinueURL(t *testing.T) {
	applier := &fakeApplier{}
	h := NewHandler(applier)

	redirect, err := h.Handle(context.Background(), Link{
		Mode: ModeVerifyEmail, Code: "abc", ContinueURL: "https://tasktide.app/welcome",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://tasktide.app/welcome", redirect)
	assert.Equal(t, []Mode{ModeVerifyEmail}, applier.applied)
}

func TestHandle_DefaultRedirect(t *testing.T) {
	h := NewHandler(&fakeApplier{})

	redirect, err := h.Handle(context.Background(), Link{Mode: ModeRecoverEmail, Code: "abc"})
	require.NoError(t, err)
	assert.Equal(t, DefaultContinueURL, redirect)
}

func TestHandle_ApplierFailure(t *testing.T) {
	h := NewHandler(&fakeApplier{err: errors.New("code expired")})

	_, err := h.Handle(context.Background(), Link{Mode: ModeVerifyEmail, Code: "abc"})
	assert.ErrorContains(t, err, "code expired")
}

func TestVerify_RejectsResetLinkWithoutApplyingCode(t *testing.T) {
	applier := &fakeApplier{}
	h := NewHandler(applier)

	_, err := h.Verify(context.Background(), Link{Mode: ModeResetPassword, Code: "abc"})
	assert.ErrorIs(t, err, ErrWrongLinkType)
	assert.Empty(t, applier.applied, "a wrong-type link must never spend the code")
}

func TestVerify_AcceptsVerifyLink(t *testing.T) {
	applier := &fakeApplier{}
	h := NewHandler(applier)

	redirect, err := h.Verify(context.Background(), Link{Mode: ModeVerifyEmail, Code: "abc"})
	require.NoError(t, err)
	assert.Equal(t, DefaultContinueURL, redirect)
	assert.Equal(t, []Mode{ModeVerifyEmail}, applier.applied)
}
