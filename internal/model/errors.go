package model

import "errors"

var (
	ErrJobNotFound = errors.New("job not found")
	// ErrDimensionMismatch means the configured model and the stored vectors
	// disagree on dimension. It is a configuration error, not a per-query one.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
