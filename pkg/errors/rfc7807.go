// Package errors provides RFC 7807 problem details for HTTP error
// responses.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ProblemDetails represents an RFC 7807 compliant error response.
type ProblemDetails struct {
	// Type is a URI reference that identifies the problem type
	Type string `json:"type"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Status is the HTTP status code
	Status int `json:"status"`
	// Detail is a human-readable explanation specific to this occurrence of the problem
	Detail string `json:"detail"`
	// Instance is a URI reference that identifies the specific occurrence of the problem
	Instance string `json:"instance,omitempty"`
	// Timestamp when the error occurred
	Timestamp time.Time `json:"timestamp"`
}

// Problem type URIs for the error taxonomy surfaced by the API.
const (
	TypeValidationError     = "https://api.spotmatch.io/errors/validation-error"
	TypeInsufficientFunds   = "https://api.spotmatch.io/errors/insufficient-funds"
	TypeInsufficientAsset   = "https://api.spotmatch.io/errors/insufficient-asset"
	TypeNotFound            = "https://api.spotmatch.io/errors/not-found"
	TypeInvalidState        = "https://api.spotmatch.io/errors/invalid-state"
	TypeConcurrencyConflict = "https://api.spotmatch.io/errors/concurrency-conflict"
	TypeInternalError       = "https://api.spotmatch.io/errors/internal-error"
)

// Problem titles matching the type URIs.
const (
	TitleValidationError     = "Validation Error"
	TitleInsufficientFunds   = "Insufficient Funds"
	TitleInsufficientAsset   = "Insufficient Asset"
	TitleNotFound            = "Not Found"
	TitleInvalidState        = "Invalid State"
	TitleConcurrencyConflict = "Concurrency Conflict"
	TitleInternalError       = "Internal Server Error"
)

// NewProblemDetails creates a new RFC 7807 compliant error.
func NewProblemDetails(problemType, title string, status int, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:      problemType,
		Title:     title,
		Status:    status,
		Detail:    detail,
		Instance:  instance,
		Timestamp: time.Now().UTC(),
	}
}

// Error implements the error interface.
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// NewValidationProblem creates a validation error response.
func NewValidationProblem(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeValidationError, TitleValidationError, http.StatusUnprocessableEntity, detail, instance)
}

// NewInsufficientFundsProblem creates an insufficient funds error response.
func NewInsufficientFundsProblem(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeInsufficientFunds, TitleInsufficientFunds, http.StatusUnprocessableEntity, detail, instance)
}

// NewInsufficientAssetProblem creates an insufficient asset error response.
func NewInsufficientAssetProblem(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeInsufficientAsset, TitleInsufficientAsset, http.StatusUnprocessableEntity, detail, instance)
}

// NewNotFoundProblem creates a not found error response.
func NewNotFoundProblem(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeNotFound, TitleNotFound, http.StatusNotFound, detail, instance)
}

// NewInvalidStateProblem creates an invalid state error response.
func NewInvalidStateProblem(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeInvalidState, TitleInvalidState, http.StatusUnprocessableEntity, detail, instance)
}

// NewConcurrencyProblem creates a concurrency conflict error response.
func NewConcurrencyProblem(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeConcurrencyConflict, TitleConcurrencyConflict, http.StatusConflict, detail, instance)
}

// NewInternalProblem creates an internal server error response.
func NewInternalProblem(instance string) *ProblemDetails {
	return NewProblemDetails(TypeInternalError, TitleInternalError, http.StatusInternalServerError, "An unexpected error occurred", instance)
}
