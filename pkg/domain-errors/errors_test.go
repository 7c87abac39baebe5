package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesCodeThroughWrapping(t *testing.T) {
	base := New(CodeAlreadyRegistered, "product already registered")
	wrapped := fmt.Errorf("register: %w", base)

	assert.True(t, Is(wrapped, CodeAlreadyRegistered))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(errors.New("plain"), CodeAlreadyRegistered))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "store unreachable")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
	assert.Equal(t, "store unreachable", MessageOf(err))
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("mystery")))
	assert.Equal(t, "internal error", MessageOf(errors.New("mystery")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidInput:      http.StatusBadRequest,
		CodeAlreadyRegistered: http.StatusConflict,
		CodeNotFound:          http.StatusNotFound,
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeTimeout:           http.StatusGatewayTimeout,
		CodeUnavailable:       http.StatusServiceUnavailable,
		CodeInternal:          http.StatusInternalServerError,
		Code("unknown"):       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
