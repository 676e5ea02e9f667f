package apperror

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapMatchesKind(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrNotFound, "FindSession", cause)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "FindSession: not found: boom", err.Error())
	assert.Equal(t, "boom", Message(err))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(ErrNotFound, "op", nil))
}

func TestWrappedTwiceStillMatches(t *testing.T) {
	err := fmt.Errorf("service: %w", New(ErrBackendUnavailable, "Query", "down"))
	assert.True(t, errors.Is(err, ErrBackendUnavailable))
}

func TestIsTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad input"), false},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"wrapped op error", fmt.Errorf("x: %w", &net.OpError{Op: "dial", Err: errors.New("refused")}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransport(tt.err))
		})
	}
}
