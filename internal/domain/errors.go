package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness violation.
	ErrAlreadyExists = errors.New("already exists")
)

// AppError is the typed application error carried from services to the HTTP
// layer. Code is a stable machine-readable string; Details holds structured
// payloads such as the insufficient-stock line list. Handlers are the only
// place an AppError is turned into an HTTP response.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validation builds a 400-class AppError.
func Validation(code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: http.StatusBadRequest}
}

// NotFoundError builds a 404-class AppError naming the missing entity.
func NotFoundError(code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: http.StatusNotFound}
}

// Conflict builds a business-rule AppError with structured details.
func Conflict(code, message string, details map[string]interface{}) *AppError {
	return &AppError{Code: code, Message: message, Status: http.StatusBadRequest, Details: details}
}

// Upstream wraps a payment-provider failure, keeping the raw provider body
// for diagnostics instead of swallowing it.
func Upstream(code, message, providerBody string) *AppError {
	e := &AppError{Code: code, Message: message, Status: http.StatusBadGateway}
	if providerBody != "" {
		e.Details = map[string]interface{}{"providerBody": providerBody}
	}
	return e
}
