package apperr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/atcc-interview-test/internal/apperr"
)

func TestWrapf(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, apperr.Wrapf(nil, "load user %s", "x"))
	})

	t.Run("keeps chain", func(t *testing.T) {
		err := apperr.Wrapf(apperr.ErrNotFound, "load user %s", "abc")
		require.EqualError(t, err, "load user abc: not found")
		require.True(t, apperr.Is(err, apperr.ErrNotFound))
		require.True(t, errors.Is(err, apperr.ErrNotFound))
	})
}
