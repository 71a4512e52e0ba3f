// Package domain contains the sound-event types and errors.
// Domain errors carry the backend's integer result code alongside a
// stage-specific sentinel, so callers can branch with errors.Is() and
// adapters can map them to transport-level responses.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrInvalidArgument indicates malformed attribute input detected
	// before any backend contact.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMarshal indicates the property list rejected an insertion;
	// the backend play/cache call was never made.
	ErrMarshal = errors.New("marshalling failed")

	// ErrSubmission indicates the backend rejected a request at
	// submission time.
	ErrSubmission = errors.New("submission rejected")

	// ErrPlayback indicates the backend reported a failure after
	// actually attempting playback.
	ErrPlayback = errors.New("playback failed")
)

// InvalidArgumentError reports malformed caller input.
type InvalidArgumentError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// NewInvalidArgumentError creates an invalid-argument error with context.
func NewInvalidArgumentError(reason string) error {
	return &InvalidArgumentError{Reason: reason}
}

// MarshalError reports a rejected property-list insertion.
type MarshalError struct {
	Code Code
}

// Error implements the error interface.
func (e *MarshalError) Error() string {
	return fmt.Sprintf("marshalling attributes: %s", e.Code)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *MarshalError) Unwrap() error {
	return ErrMarshal
}

// NewMarshalError creates a marshal error carrying the backend code.
func NewMarshalError(code Code) error {
	return &MarshalError{Code: code}
}

// SubmissionError reports a request the backend refused to accept.
type SubmissionError struct {
	Op   string
	Code Code
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}

	return e.Code.String()
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *SubmissionError) Unwrap() error {
	return ErrSubmission
}

// NewSubmissionError creates a submission error for the given operation.
func NewSubmissionError(op string, code Code) error {
	return &SubmissionError{Op: op, Code: code}
}

// PlaybackError reports a failure delivered by the backend's completion
// callback after playback was attempted.
type PlaybackError struct {
	Code Code
	Text string
}

// Error implements the error interface.
func (e *PlaybackError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("playback: %s", e.Text)
	}

	return fmt.Sprintf("playback: %s", e.Code)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *PlaybackError) Unwrap() error {
	return ErrPlayback
}

// NewPlaybackError creates a playback error from a completion code and the
// backend-supplied text.
func NewPlaybackError(code Code, text string) error {
	return &PlaybackError{Code: code, Text: text}
}

// IsInvalidArgument checks if an error is an invalid-argument error.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsMarshal checks if an error is a marshal error.
func IsMarshal(err error) bool {
	return errors.Is(err, ErrMarshal)
}

// IsSubmission checks if an error is a submission error.
func IsSubmission(err error) bool {
	return errors.Is(err, ErrSubmission)
}

// IsPlayback checks if an error is a playback error.
func IsPlayback(err error) bool {
	return errors.Is(err, ErrPlayback)
}

// IsCanceled checks if an error carries the backend's canceled code.
func IsCanceled(err error) bool {
	return CodeFromError(err) == CodeCanceled
}

// CodeFromError extracts the backend code from a domain error.
// Invalid-argument errors map to CodeInvalid; nil maps to CodeSuccess;
// anything unrecognized maps to CodeInternal.
func CodeFromError(err error) Code {
	if err == nil {
		return CodeSuccess
	}

	var marshalErr *MarshalError
	if errors.As(err, &marshalErr) {
		return marshalErr.Code
	}

	var submissionErr *SubmissionError
	if errors.As(err, &submissionErr) {
		return submissionErr.Code
	}

	var playbackErr *PlaybackError
	if errors.As(err, &playbackErr) {
		return playbackErr.Code
	}

	if errors.Is(err, ErrInvalidArgument) {
		return CodeInvalid
	}

	return CodeInternal
}

// ErrorFromCode builds the stage-appropriate error for a backend code.
// Success codes map to nil.
func ErrorFromCode(op string, code Code) error {
	if code.IsSuccess() {
		return nil
	}

	return NewSubmissionError(op, code)
}
