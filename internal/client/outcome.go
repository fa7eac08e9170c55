package client

import "github.com/storefront/identity/internal/core/domain"

// OutcomeKind classifies the result of a call to the identity API.
type OutcomeKind int

const (
	// OutcomeOK carries a user, and a token for login calls.
	OutcomeOK OutcomeKind = iota
	// OutcomeRejected is a definitive refusal of the credentials.
	OutcomeRejected
	// OutcomeUnreachable means no response was received.
	OutcomeUnreachable
	// OutcomeFailed is any other error.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnreachable:
		return "unreachable"
	default:
		return "failed"
	}
}

// Outcome is the closed result of an identity API call.
type Outcome struct {
	Kind  OutcomeKind
	Token string
	User  *domain.User
	Err   error
}

func OK(token string, user *domain.User) Outcome {
	return Outcome{Kind: OutcomeOK, Token: token, User: user}
}

func Rejected(err error) Outcome {
	return Outcome{Kind: OutcomeRejected, Err: err}
}

func Unreachable(err error) Outcome {
	return Outcome{Kind: OutcomeUnreachable, Err: err}
}

func Failed(err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: err}
}
