package domain

// Code is a backend result code. The zero value means success; failures are
// negative, mirroring the native sound-event library's code space so that
// codes can be passed through unchanged.
type Code int

// Backend result codes.
const (
	CodeSuccess      Code = 0
	CodeNotSupported Code = -1
	CodeInvalid      Code = -2
	CodeState        Code = -3
	CodeOOM          Code = -4
	CodeNoDriver     Code = -5
	CodeSystem       Code = -6
	CodeCorrupt      Code = -7
	CodeTooBig       Code = -8
	CodeNotFound     Code = -9
	CodeDestroyed    Code = -10
	CodeCanceled     Code = -11
	CodeNotAvailable Code = -12
	CodeAccess       Code = -13
	CodeIO           Code = -14
	CodeInternal     Code = -15
	CodeDisabled     Code = -16
	CodeForked       Code = -17
	CodeDisconnected Code = -18
)

// IsSuccess reports whether the code indicates a successful operation.
func (c Code) IsSuccess() bool {
	return c == CodeSuccess
}

// codeText is the backend's textual error table.
var codeText = map[Code]string{
	CodeSuccess:      "success",
	CodeNotSupported: "operation not supported",
	CodeInvalid:      "invalid argument",
	CodeState:        "invalid state",
	CodeOOM:          "out of memory",
	CodeNoDriver:     "no such driver",
	CodeSystem:       "system error",
	CodeCorrupt:      "file or data corrupt",
	CodeTooBig:       "file or data too large",
	CodeNotFound:     "file or data not found",
	CodeDestroyed:    "destroyed",
	CodeCanceled:     "canceled",
	CodeNotAvailable: "not available",
	CodeAccess:       "access forbidden",
	CodeIO:           "IO error",
	CodeInternal:     "internal error",
	CodeDisabled:     "sound disabled",
	CodeForked:       "process forked",
	CodeDisconnected: "daemon disconnected",
}

// String returns the backend's textual description for the code.
func (c Code) String() string {
	if text, ok := codeText[c]; ok {
		return text
	}

	return "unknown error"
}
