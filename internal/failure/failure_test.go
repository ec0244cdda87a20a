package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	base := New(NetworkFailure, "synthesize", errors.New("status 503"))
	wrapped := fmt.Errorf("generate audio: %w", base)

	assert.Equal(t, NetworkFailure, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, NetworkFailure))
	assert.False(t, IsKind(wrapped, DecodeFailure))
	assert.Contains(t, wrapped.Error(), "synthesize: network failure: status 503")
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestNewfUnwraps(t *testing.T) {
	err := Newf(ValidationFailure, "submit", "title must be at least %d characters", 2)
	var fe *Error
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, "title must be at least 2 characters", fe.Err.Error())
	assert.Equal(t, "validation failure", fe.Kind.String())
}
