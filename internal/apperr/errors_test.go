package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfThroughWrapping(t *testing.T) {
	base := New(CodeInviteExpired, "invite expired")
	wrapped := fmt.Errorf("accept: %w", base)

	assert.Equal(t, CodeInviteExpired, CodeOf(wrapped))
	assert.True(t, errors.Is(wrapped, New(CodeInviteExpired, "other message")))
	assert.False(t, errors.Is(wrapped, New(CodeInviteAlreadyUsed, "")))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("boom")))
	assert.False(t, Terminal(errors.New("boom")))
	assert.True(t, Terminal(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(CodeNotFound, "load tenant", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load tenant: db down", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, CodeInvalidToken.HTTPStatus())
	assert.Equal(t, http.StatusConflict, CodeInviteAlreadyUsed.HTTPStatus())
	assert.Equal(t, http.StatusGone, CodeInviteExpired.HTTPStatus())
	assert.Equal(t, http.StatusUnprocessableEntity, CodeNoEndDefined.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, CodeForbidden.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, CodeUnknown.HTTPStatus())
}
