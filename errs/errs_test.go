package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsComparesKindOnly(t *testing.T) {
	err := Corruptf("header", 128, "truncated field")

	assert.True(t, errors.Is(err, ErrBadMagic), "both are Corrupt-kind errors")
	assert.False(t, errors.Is(err, ErrReaderClosed))
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("short read")
	err := Wrap(Io, "reading block", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "short read")
}

func TestErrorMessageIncludesStageAndOffset(t *testing.T) {
	err := Corruptf("footer", 4096, "bad magic repeat")
	assert.Equal(t, "Corrupt(footer@4096): bad magic repeat", err.Error())
}
