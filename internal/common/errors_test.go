package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := WrapError(base, "failed to open gateway")

	assert.ErrorIs(t, wrapped, base)
	assert.Contains(t, wrapped.Error(), "failed to open gateway")

	assert.Nil(t, WrapError(nil, "no-op"))
}

func TestTransferError_Unwrap(t *testing.T) {
	te := NewTransferError("download", "reports", "a.docx", ErrSizeMismatch)

	assert.ErrorIs(t, te, ErrSizeMismatch)
	assert.Contains(t, te.Error(), "reports/a.docx")
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrAuthenticationFailed))
	assert.True(t, IsFatal(WrapError(ErrInvalidConfiguration, "bad schedule")))
	assert.True(t, IsFatal(NewFatalError(errors.New("anything"))))
	assert.False(t, IsFatal(ErrNetworkFailure))
	assert.False(t, IsFatal(nil))
}
