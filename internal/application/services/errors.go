// Package services contains the application-layer orchestration for AlumNet.
package services

import "errors"

// Sentinel errors translated to HTTP statuses at the presentation layer.
var (
	// ErrNotFound covers both missing and expired content; callers cannot
	// distinguish the two.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks an operation attempted by someone other than
	// the owner.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidContent marks a payload that fails variant validation.
	ErrInvalidContent = errors.New("invalid content")
)
