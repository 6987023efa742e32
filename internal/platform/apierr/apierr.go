package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain failure codes surfaced to the presentation layer.
const (
	CodeUnauthorized            = "unauthorized"
	CodeValidationFailed        = "validation_failed"
	CodeNotFound                = "not_found"
	CodeForbidden               = "forbidden"
	CodeDuplicateCourseCode     = "duplicate_course_code"
	CodeUnauthorizedCourseCode  = "unauthorized_course_code"
	CodeCourseCodeInUse         = "course_code_in_use"
	CodeTeacherMismatch         = "teacher_mismatch"
	CodeCourseCodeNotAuthorized = "course_code_not_authorized"
	CodeAlreadyEnrolled         = "already_enrolled"
	CodeDuplicateModuleNumber   = "duplicate_module_number"
	CodeUploadError             = "upload_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeValidationFailed, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

func Forbidden(format string, args ...interface{}) *Error {
	return New(http.StatusForbidden, CodeForbidden, fmt.Errorf(format, args...))
}

func Conflict(code string, format string, args ...interface{}) *Error {
	return New(http.StatusConflict, code, fmt.Errorf(format, args...))
}

// As unwraps err into an *Error when one is anywhere in the chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Is reports whether err carries the given domain code.
func Is(err error, code string) bool {
	ae, ok := As(err)
	return ok && ae.Code == code
}
