// v0
// internal/model/errors.go
package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNetwork marks transport failures and non-2xx responses.
	ErrNetwork = errors.New("network error")
	// ErrAPI marks well-formed responses carrying success=false.
	ErrAPI = errors.New("api error")
	// ErrValidation marks scenario inputs outside their allowed range.
	ErrValidation = errors.New("validation error")
	// ErrRender marks a missing target region.
	ErrRender = errors.New("render error")
)

// FetchError is returned when the live metrics call fails.
type FetchError struct {
	Status  int
	Message string
	Kind    error
}

func (e *FetchError) Error() string { return e.Message }

func (e *FetchError) Unwrap() error { return e.Kind }

// PredictionError is returned when the prediction call fails.
type PredictionError struct {
	Message string
	Kind    error
}

func (e *PredictionError) Error() string { return e.Message }

func (e *PredictionError) Unwrap() error { return e.Kind }

// FieldProblem describes one rejected scenario input.
type FieldProblem struct {
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

// ValidationError aggregates every rejected field of a prediction request.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RenderError reports a UI region that could not be written.
type RenderError struct {
	Region string
}

func (e *RenderError) Error() string { return fmt.Sprintf("missing render region %q", e.Region) }

func (e *RenderError) Unwrap() error { return ErrRender }
