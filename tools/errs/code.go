package errs

import "net/http"

// 错误码分段：1xxx 客户端错误，15xx 服务端错误
const (
	ValidationCode      = 1001
	NotFoundCode        = 1002
	ForbiddenCode       = 1003
	ConflictCode        = 1004
	UnauthenticatedCode = 1005
	InternalCode        = 1500
)

var (
	ErrValidation      = NewCodeError(ValidationCode, "invalid argument")
	ErrNotFound        = NewCodeError(NotFoundCode, "record not found")
	ErrForbidden       = NewCodeError(ForbiddenCode, "no permission")
	ErrConflict        = NewCodeError(ConflictCode, "state conflict")
	ErrUnauthenticated = NewCodeError(UnauthenticatedCode, "unauthenticated")
	ErrInternal        = NewCodeError(InternalCode, "server error")
)

// HTTPStatus maps a taxonomy code onto the transport status.
// Unauthenticated and Forbidden stay distinct so clients can tell
// "go log in" from "you lack the role".
func HTTPStatus(err error) int {
	switch Unpack(err).Code {
	case ValidationCode:
		return http.StatusBadRequest
	case NotFoundCode:
		return http.StatusNotFound
	case ForbiddenCode:
		return http.StatusForbidden
	case ConflictCode:
		return http.StatusConflict
	case UnauthenticatedCode:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
