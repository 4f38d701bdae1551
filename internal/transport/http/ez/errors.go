package ez

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	resp "property-listing/internal/transport/http/response"
	apperrors "property-listing/pkg/errors"
)

// AErr handler 直接指定业务码
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// Envelope 把任意 error 转成 (业务码, 对外消息)；5xx 不暴露内部细节
func Envelope(err error) (int, string) {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae.Code, ae.Error()
	}
	if typed := apperrors.As(err); typed != nil {
		meta := apperrors.MetadataFor(typed.Code())
		if meta.HTTPStatus >= http.StatusInternalServerError {
			return meta.HTTPStatus, meta.PublicMessage
		}
		msg := typed.Message()
		if msg == "" {
			msg = meta.PublicMessage
		}
		return meta.HTTPStatus, msg
	}
	return resp.CodeServerError, apperrors.MetadataFor(apperrors.CodeInternal).PublicMessage
}

// Fail 写失败响应；5xx 挂到 c.Errors 交给访问日志
func Fail(c *gin.Context, err error) {
	code, msg := Envelope(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	resp.JSON(c, resp.Error(code, msg))
}
