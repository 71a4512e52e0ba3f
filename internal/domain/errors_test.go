package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		check    func(error) bool
	}{
		{
			name:     "invalid argument",
			err:      NewInvalidArgumentError("odd attribute count"),
			sentinel: ErrInvalidArgument,
			check:    IsInvalidArgument,
		},
		{
			name:     "marshal",
			err:      NewMarshalError(CodeInvalid),
			sentinel: ErrMarshal,
			check:    IsMarshal,
		},
		{
			name:     "submission",
			err:      NewSubmissionError("play", CodeNotFound),
			sentinel: ErrSubmission,
			check:    IsSubmission,
		},
		{
			name:     "playback",
			err:      NewPlaybackError(CodeIO, "IO error"),
			sentinel: ErrPlayback,
			check:    IsPlayback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.err, tt.sentinel)
			assert.True(t, tt.check(tt.err))

			// Wrapping preserves classification.
			wrapped := fmt.Errorf("triggering sound: %w", tt.err)
			assert.True(t, tt.check(wrapped))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "invalid argument: attribute name without a value",
		NewInvalidArgumentError("attribute name without a value").Error())
	assert.Equal(t, "marshalling attributes: invalid argument",
		NewMarshalError(CodeInvalid).Error())
	assert.Equal(t, "play: file or data not found",
		NewSubmissionError("play", CodeNotFound).Error())
	assert.Equal(t, "playback: device gone",
		NewPlaybackError(CodeDisconnected, "device gone").Error())
	assert.Equal(t, "playback: daemon disconnected",
		NewPlaybackError(CodeDisconnected, "").Error())
}

func TestCodeFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: CodeSuccess},
		{name: "marshal", err: NewMarshalError(CodeOOM), want: CodeOOM},
		{name: "submission", err: NewSubmissionError("cache", CodeNotSupported), want: CodeNotSupported},
		{name: "playback", err: NewPlaybackError(CodeCanceled, ""), want: CodeCanceled},
		{name: "invalid argument", err: NewInvalidArgumentError("x"), want: CodeInvalid},
		{name: "foreign error", err: errors.New("boom"), want: CodeInternal},
		{
			name: "wrapped submission",
			err:  fmt.Errorf("play: %w", NewSubmissionError("play", CodeDisabled)),
			want: CodeDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeFromError(tt.err))
		})
	}
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, IsCanceled(NewPlaybackError(CodeCanceled, "")))
	assert.True(t, IsCanceled(NewSubmissionError("play", CodeCanceled)))
	assert.False(t, IsCanceled(NewPlaybackError(CodeIO, "")))
	assert.False(t, IsCanceled(nil))
}

func TestErrorFromCode(t *testing.T) {
	require.NoError(t, ErrorFromCode("play", CodeSuccess))

	err := ErrorFromCode("open", CodeNotAvailable)
	require.Error(t, err)
	assert.True(t, IsSubmission(err))
	assert.Equal(t, CodeNotAvailable, CodeFromError(err))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "success", CodeSuccess.String())
	assert.Equal(t, "file or data not found", CodeNotFound.String())
	assert.Equal(t, "sound disabled", CodeDisabled.String())
	assert.Equal(t, "unknown error", Code(-99).String())
}
