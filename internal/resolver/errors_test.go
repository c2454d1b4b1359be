package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	tests := []struct {
		name    string
		err     error
		kind    Kind
		message string
	}{
		{"fetch", NewFetchError("https://charm.test/", cause), KindUpstreamFailure, "Failed to scrape directory listing: boom"},
		{"decode", NewDecodeError(cause), KindInvalidInput, "Failed to decode VIN: boom"},
		{"resolution", NewResolutionError(StageYear, "2015"), KindNotFound, "Could not find year match for 2015"},
		{"foreign", cause, KindUpstreamFailure, "boom"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.kind, KindOf(tt.err))
			require.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	wrapped := errors.Join(errors.New("outer"), NewFetchError("u", cause))
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, KindUpstreamFailure, KindOf(wrapped))
	require.Equal(t, "Failed to scrape directory listing", PublicMessage(wrapped, "fallback"))
	require.Equal(t, "fallback", PublicMessage(cause, "fallback"))
}

func TestKindString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "not_found", KindNotFound.String())
	require.Equal(t, "invalid_input", KindInvalidInput.String())
	require.Equal(t, "upstream_failure", KindUpstreamFailure.String())
}
