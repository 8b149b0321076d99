package domain

import (
	"errors"
	"fmt"
)

type FailureKind string

const (
	FailureFatal       FailureKind = "fatal"
	FailureNoImage     FailureKind = "no_image"
	FailureSafetyBlock FailureKind = "safety_block"
)

// Transient reports whether a failure of this kind may be retried.
func (k FailureKind) Transient() bool {
	return k == FailureNoImage || k == FailureSafetyBlock
}

// GenerationError is a classified variant generation failure.
type GenerationError struct {
	Kind   FailureKind
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func NewNoImageError(reason string) error {
	return &GenerationError{Kind: FailureNoImage, Reason: reason}
}

func NewSafetyBlockError(reason string) error {
	return &GenerationError{Kind: FailureSafetyBlock, Reason: reason}
}

func NewFatalError(reason string, err error) error {
	return &GenerationError{Kind: FailureFatal, Reason: reason, Err: err}
}

// ClassifyFailure returns the failure kind of err. Errors that were never
// classified are fatal.
func ClassifyFailure(err error) FailureKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return FailureFatal
}

func IsTransient(err error) bool {
	return err != nil && ClassifyFailure(err).Transient()
}
