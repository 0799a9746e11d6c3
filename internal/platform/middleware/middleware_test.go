package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtransit/internal/access"
	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/requestcontext"
	"medtransit/pkg/testutil"
)

type stubResolver map[string]domain.Principal

func (s stubResolver) PrincipalFromToken(token string) (domain.Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return "", dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echo reports what the chain put into the context.
func echo() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-Principal", requestcontext.Principal(ctx).String())
		if requestcontext.HasHeight(ctx) {
			w.Header().Set("X-Height", strconv.FormatUint(uint64(requestcontext.Height(ctx)), 10))
		}
		w.Header().Set("X-Seen-Request-ID", requestcontext.RequestID(ctx))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequestID(t *testing.T) {
	t.Run("mints an id when none is sent", func(t *testing.T) {
		rr := testutil.DoRequest(RequestID(echo()), testutil.NewRequest(t, http.MethodGet, "/"))
		id := rr.Header().Get(HeaderRequestID)
		require.NotEmpty(t, id)
		assert.Equal(t, id, rr.Header().Get("X-Seen-Request-ID"))
	})

	t.Run("reuses the incoming id", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set(HeaderRequestID, "req-123")
		rr := testutil.DoRequest(RequestID(echo()), req)
		assert.Equal(t, "req-123", rr.Header().Get(HeaderRequestID))
	})

	t.Run("replaces an oversized id", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set(HeaderRequestID, strings.Repeat("x", 200))
		rr := testutil.DoRequest(RequestID(echo()), req)
		assert.Len(t, rr.Header().Get(HeaderRequestID), 36)
	})
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	rr := testutil.DoRequest(Logger(logger)(echo()), testutil.NewRequest(t, http.MethodGet, "/trips/t-1"))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Contains(t, buf.String(), `"path":"/trips/t-1"`)
	assert.Contains(t, buf.String(), `"status":204`)
}

func TestRecovery(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rr := testutil.DoRequest(Recovery(discardLogger())(panicky), testutil.NewRequest(t, http.MethodGet, "/"))
	testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, dErrors.CodeInternal)
}

func TestAuthenticate(t *testing.T) {
	resolver := stubResolver{"good": "dispatcher-1"}
	handler := Authenticate(resolver, discardLogger())(echo())

	t.Run("no header stays anonymous", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Header().Get("X-Principal"))
	})

	t.Run("valid token attaches principal", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("Authorization", "Bearer good")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "dispatcher-1", rr.Header().Get("X-Principal"))
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("Authorization", "Bearer bad")
		rr := testutil.DoRequest(handler, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, dErrors.CodeUnauthenticated)
	})

	t.Run("non bearer scheme is rejected", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		rr := testutil.DoRequest(handler, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, dErrors.CodeUnauthenticated)
	})
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(discardLogger())(echo())

	rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodPost, "/"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, dErrors.CodeUnauthenticated)

	rr = testutil.DoRequest(handler, testutil.WithPrincipal(testutil.NewRequest(t, http.MethodPost, "/"), "p-1"))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestLogicalClock(t *testing.T) {
	handler := LogicalClock(discardLogger())(echo())

	t.Run("parses the header", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPost, "/")
		req.Header.Set(HeaderLogicalTime, "1000")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, "1000", rr.Header().Get("X-Height"))
	})

	t.Run("zero is a valid reading", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPost, "/")
		req.Header.Set(HeaderLogicalTime, "0")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, "0", rr.Header().Get("X-Height"))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, v := range []string{"-1", "abc", "1.5", "18446744073709551616"} {
			req := testutil.NewRequest(t, http.MethodPost, "/")
			req.Header.Set(HeaderLogicalTime, v)
			rr := testutil.DoRequest(handler, req)
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, dErrors.CodeBadRequest)
		}
	})

	t.Run("required variant rejects a missing header", func(t *testing.T) {
		rr := testutil.DoRequest(LogicalClock(discardLogger())(RequireLogicalClock(echo())), testutil.NewRequest(t, http.MethodPost, "/"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, dErrors.CodeBadRequest)
	})
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(access.NewAdmins("root"), discardLogger())(echo())

	rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/audit/t-1"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, dErrors.CodeUnauthenticated)

	rr = testutil.DoRequest(handler, testutil.WithPrincipal(testutil.NewRequest(t, http.MethodGet, "/audit/t-1"), "someone"))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, dErrors.CodeUnauthorized)

	rr = testutil.DoRequest(handler, testutil.WithPrincipal(httptest.NewRequest(http.MethodGet, "/audit/t-1", nil), "root"))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
