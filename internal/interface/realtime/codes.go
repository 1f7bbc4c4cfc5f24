package realtime

import (
	"errors"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
)

// Code is the numeric failure reason sent to clients.
type Code int

const (
	CodeNameTaken        Code = 0x111
	CodeBadCredential    Code = 0x121
	CodeInvalidToken     Code = 0x122
	CodeSessionExpired   Code = 0x123
	CodeNoDailyChallenge Code = 0x21
	CodeStore            Code = 0x2
	CodeInternal         Code = 0x3
)

// IsExpected reports whether the code describes a normal client outcome
// rather than a server fault.
func (c Code) IsExpected() bool {
	return c != CodeStore && c != CodeInternal
}

// CodeFor maps an error returned by the application layer onto the closed
// set of client codes. Unclassified errors are store failures.
func CodeFor(err error) Code {
	switch {
	case errors.Is(err, shared.ErrNameTaken):
		return CodeNameTaken
	case errors.Is(err, shared.ErrBadCredential):
		return CodeBadCredential
	case errors.Is(err, shared.ErrInvalidToken):
		return CodeInvalidToken
	case errors.Is(err, shared.ErrSessionExpired):
		return CodeSessionExpired
	case errors.Is(err, shared.ErrNoDailyChallenge):
		return CodeNoDailyChallenge
	case errors.Is(err, shared.ErrHashFailure),
		errors.Is(err, shared.ErrTopicNotFound),
		shared.IsInvalidInput(err):
		return CodeInternal
	default:
		return CodeStore
	}
}
