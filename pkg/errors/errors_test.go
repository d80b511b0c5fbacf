package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusNames(t *testing.T) {
	assert.Equal(t, "unauthenticated", Unauthenticated("x").Status())
	assert.Equal(t, "permission-denied", PermissionDenied("x").Status())
	assert.Equal(t, "invalid-argument", InvalidArgument("x").Status())
	assert.Equal(t, codes.PermissionDenied, CodeOf("permission-denied"))
	assert.Equal(t, codes.Unknown, CodeOf("nope"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, Unauthenticated("x").HTTPStatus())
	assert.Equal(t, http.StatusForbidden, PermissionDenied("x").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, InvalidArgument("x").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NotFound("x").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, WithCode(codes.Internal, "x").HTTPStatus())
}

func TestCodeFromChain(t *testing.T) {
	base := InvalidArgument("no contacts")
	wrapped := fmt.Errorf("create: %w", base)

	assert.True(t, HasCode(wrapped, codes.InvalidArgument))
	assert.Equal(t, codes.Internal, CodeFrom(stderrors.New("plain")))
	assert.Equal(t, codes.NotFound, CodeFrom(status.Error(codes.NotFound, "gone")))

	e, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "no contacts", e.Message)
}

func TestWrapKeepsCode(t *testing.T) {
	err := Wrap(PermissionDenied("not yours"), "update location")
	assert.Equal(t, codes.PermissionDenied, err.Code)
	assert.Nil(t, Wrap(nil, "x"))
}

func TestGRPCStatus(t *testing.T) {
	s, ok := status.FromError(Unauthenticated("login first"))
	assert.True(t, ok)
	assert.Equal(t, codes.Unauthenticated, s.Code())
	assert.Equal(t, "login first", s.Message())
}

func TestWithContextDoesNotMutate(t *testing.T) {
	orig := NotFound("alert")
	withCtx := orig.WithContext("alert_id", "a1")

	assert.Empty(t, orig.Context)
	assert.Equal(t, []KeyValue{{Key: "alert_id", Value: "a1"}}, withCtx.Context)
}
