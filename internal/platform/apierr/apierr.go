// Package apierr は assets/lends/attendance で個別に持っていた
// APIError を1か所にまとめたもの。
package apierr

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`

	// 以下は打刻系エラーで返す補足情報（未設定なら出さない）
	Suggestion        string   `json:"suggestion,omitempty"`
	Reason            string   `json:"reason,omitempty"`
	IsUnsavedFace     bool     `json:"is_unsaved_face,omitempty"`
	Confidence        *float64 `json:"confidence,omitempty"`
	LocationError     bool     `json:"location_error,omitempty"`
	Distance          *float64 `json:"distance,omitempty"`
	Allowed           *bool    `json:"allowed,omitempty"`
	RetryAfterMinutes int      `json:"retry_after_minutes,omitempty"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrUnauthenticated(msg string) *APIError {
	return &APIError{Code: CodeUnauthenticated, Message: msg}
}
func ErrForbidden(msg string) *APIError { return &APIError{Code: CodeForbidden, Message: msg} }
func ErrNotFound(msg string) *APIError  { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError  { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError  { return &APIError{Code: CodeInternal, Message: msg} }

func ErrRateLimited(msg string, retryAfter int) *APIError {
	return &APIError{Code: CodeRateLimited, Message: msg, RetryAfterMinutes: retryAfter}
}

// WithSuggestion などはチェーンで補足情報を付けるためのヘルパー
func (e *APIError) WithSuggestion(s string) *APIError { e.Suggestion = s; return e }
func (e *APIError) WithReason(s string) *APIError     { e.Reason = s; return e }
func (e *APIError) UnsavedFace() *APIError            { e.IsUnsavedFace = true; return e }

func (e *APIError) WithConfidence(v float64) *APIError {
	e.Confidence = &v
	return e
}

func (e *APIError) WithDistance(v *float64) *APIError {
	e.Distance = v
	return e
}

func (e *APIError) WithAllowed(v bool) *APIError {
	e.Allowed = &v
	return e
}

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeUnauthenticated:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict:
			return http.StatusConflict
		case CodeRateLimited:
			return http.StatusTooManyRequests
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

type errorDTO struct {
	Error *APIError `json:"error"`
}

// FromErr: APIError 以外は中身を隠して INTERNAL にする
func FromErr(err error) *APIError {
	var api *APIError
	if errors.As(err, &api) {
		return api
	}
	return ErrInternal("internal server error")
}

// Respond: エラーを HTTP レスポンスに変換する。500 系だけログに残す
func Respond(c *gin.Context, err error) {
	status := ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, errorDTO{Error: FromErr(err)})
}

// Body: バインド失敗などハンドラ内で直接返す場合用
func Body(err *APIError) gin.H { return gin.H{"error": err} }
