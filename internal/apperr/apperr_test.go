package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	sentinel := NotFound("video not found")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"tagged", Validation("title is required"), KindValidation},
		{"wrapped with fmt", fmt.Errorf("loading video: %w", sentinel), KindNotFound},
		{"untagged", errors.New("disk full"), KindInternal},
		{"internal wrap", Internal("querying videos", errors.New("locked")), KindInternal},
		{"conflict", Conflict("already liked"), KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestSentinelSurvivesWrapping(t *testing.T) {
	sentinel := Authentication("invalid credentials")
	err := fmt.Errorf("login alice: %w", sentinel)

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "invalid credentials", MessageOf(err))
	assert.True(t, Is(err, KindAuthentication))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(KindInternal, "noop", nil))
	assert.False(t, Is(nil, KindInternal))
}

func TestErrorString(t *testing.T) {
	cause := errors.New("constraint failed")
	err := Wrap(KindConflict, "username already exists", cause)

	assert.Equal(t, "username already exists: constraint failed", err.Error())
	assert.ErrorIs(t, err, cause)
}
