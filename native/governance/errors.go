package governance

// Code is the tagged error discriminant surfaced to callers. The numeric
// values are part of the contract ABI and must stay stable.
type Code uint32

const (
	CodeAlreadyInitialized Code = 1
	CodeNotInitialized     Code = 2
	CodeUnauthorized       Code = 3
	CodeNotAMember         Code = 4
	CodeInvalidProposal    Code = 5
	CodeProposalNotFound   Code = 6
	CodeVotingClosed       Code = 7
	CodeAlreadyVoted       Code = 8
	CodeVotingStillActive  Code = 9
	CodeProposalRejected   Code = 10
	CodeOverflow           Code = 11
	CodeInvalidQuorum      Code = 12
)

// Error pairs a tagged code with a human-readable message.
type Error struct {
	Code Code
	msg  string
}

func (e *Error) Error() string { return e.msg }

var (
	ErrAlreadyInitialized = &Error{CodeAlreadyInitialized, "governance: already initialized"}
	ErrNotInitialized     = &Error{CodeNotInitialized, "governance: not initialized"}
	ErrUnauthorized       = &Error{CodeUnauthorized, "governance: caller did not authorize invocation"}
	ErrNotAMember         = &Error{CodeNotAMember, "governance: caller is not a member"}
	ErrInvalidProposal    = &Error{CodeInvalidProposal, "governance: invalid proposal"}
	ErrProposalNotFound   = &Error{CodeProposalNotFound, "governance: proposal not found"}
	ErrVotingClosed       = &Error{CodeVotingClosed, "governance: proposal not accepting votes"}
	ErrAlreadyVoted       = &Error{CodeAlreadyVoted, "governance: ballot already recorded"}
	ErrVotingStillActive  = &Error{CodeVotingStillActive, "governance: voting period still open"}
	ErrProposalRejected   = &Error{CodeProposalRejected, "governance: proposal is not executable"}
	ErrOverflow           = &Error{CodeOverflow, "governance: arithmetic overflow"}
	ErrInvalidQuorum      = &Error{CodeInvalidQuorum, "governance: quorum percent out of range"}
)
