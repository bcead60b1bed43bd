package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Invalid("bad input"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Forbidden("nope"), http.StatusForbidden},
		{Conflict("already there"), http.StatusConflict},
		{RateLimited("slow down"), http.StatusTooManyRequests},
		{Transient(errors.New("pq: connection refused")), http.StatusServiceUnavailable},
		{Fatal("invariant broken"), http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.status, HTTPStatus(tc.err), "err: %v", tc.err)
	}
}

func TestReasonHidesUnclassifiedDetail(t *testing.T) {
	require.Equal(t, "internal error", Reason(errors.New("pq: password authentication failed")))
}

func TestReasonKeepsClassifiedDetail(t *testing.T) {
	err := Conflict("user %d is already banned from room %d", 5, 7)
	require.Contains(t, Reason(err), "already banned")
}

func TestTransientHidesDriverDetail(t *testing.T) {
	err := Transient(errors.New("pq: relation does not exist"))
	require.ErrorIs(t, err, ErrTransient)
	require.NotContains(t, Reason(err), "pq:")
}

func TestWrappedErrorsStayClassified(t *testing.T) {
	err := fmt.Errorf("request friend: %w", Conflict("friend request already sent"))
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestIsTimeout(t *testing.T) {
	require.True(t, IsTimeout(context.DeadlineExceeded))
	require.True(t, IsTimeout(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	require.False(t, IsTimeout(errors.New("other")))
}
