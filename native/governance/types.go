package governance

import (
	"math/big"

	"stellarguard/crypto"
	"stellarguard/host"
)

// ProposalStatus enumerates the lifecycle phases a proposal transitions
// through. Only Active -> {Passed, Rejected, Expired} and Passed -> Executed
// are legal edges; no edge is ever reversed.
type ProposalStatus uint32

const (
	// StatusActive identifies proposals currently accepting votes.
	StatusActive ProposalStatus = 1
	// StatusPassed marks proposals that met quorum with a majority in
	// favour and await execution.
	StatusPassed ProposalStatus = 2
	// StatusRejected marks proposals that met quorum without a majority.
	StatusRejected ProposalStatus = 3
	// StatusExecuted marks passed proposals whose action has been applied.
	StatusExecuted ProposalStatus = 4
	// StatusExpired marks proposals whose voting window closed below quorum.
	StatusExpired ProposalStatus = 5
)

// String implements fmt.Stringer for logs and event payloads.
func (s ProposalStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPassed:
		return "passed"
	case StatusRejected:
		return "rejected"
	case StatusExecuted:
		return "executed"
	case StatusExpired:
		return "expired"
	default:
		return "unspecified"
	}
}

// ProposalAction enumerates what a passed proposal does when executed.
// Funding, PolicyChange, and General proposals have no internal side effect;
// the operator acts on them externally.
type ProposalAction uint32

const (
	ActionFunding      ProposalAction = 1
	ActionPolicyChange ProposalAction = 2
	ActionAddMember    ProposalAction = 3
	ActionRemoveMember ProposalAction = 4
	ActionGeneral      ProposalAction = 5
)

// Valid reports whether the action is one of the defined kinds.
func (a ProposalAction) Valid() bool {
	return a >= ActionFunding && a <= ActionGeneral
}

// MutatesMembers reports whether executing the action touches the electorate.
func (a ProposalAction) MutatesMembers() bool {
	return a == ActionAddMember || a == ActionRemoveMember
}

// String implements fmt.Stringer.
func (a ProposalAction) String() string {
	switch a {
	case ActionFunding:
		return "funding"
	case ActionPolicyChange:
		return "policy_change"
	case ActionAddMember:
		return "add_member"
	case ActionRemoveMember:
		return "remove_member"
	case ActionGeneral:
		return "general"
	default:
		return "unspecified"
	}
}

// Proposal captures the metadata, tallies, and lifecycle position of one
// governance proposal. The struct mirrors the persistence contract so
// off-chain indexers can decode records directly.
type Proposal struct {
	ID           uint64         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Action       ProposalAction `json:"action"`
	Proposer     crypto.Address `json:"proposer"`
	VotesFor     uint32         `json:"votes_for"`
	VotesAgainst uint32         `json:"votes_against"`
	TotalVotes   uint32         `json:"total_votes"`
	Status       ProposalStatus `json:"status"`
	CreatedAt    uint64         `json:"created_at"`
	EndsAt       uint64         `json:"ends_at"`
	Amount       *big.Int       `json:"amount"`
	Target       crypto.Address `json:"target"`
}

// Storage key discriminants. The encodings are part of the persisted state
// layout and must stay stable across upgrades.
const (
	keyTagAdmin           byte = 0x01
	keyTagMembers         byte = 0x02
	keyTagQuorumPercent   byte = 0x03
	keyTagVotingPeriod    byte = 0x04
	keyTagProposalCounter byte = 0x05
	keyTagProposal        byte = 0x10
	keyTagVote            byte = 0x11
)

func adminKey() host.Key   { return host.TaggedKey{Tag: keyTagAdmin} }
func membersKey() host.Key { return host.TaggedKey{Tag: keyTagMembers} }
func quorumKey() host.Key  { return host.TaggedKey{Tag: keyTagQuorumPercent} }

func votingPeriodKey() host.Key    { return host.TaggedKey{Tag: keyTagVotingPeriod} }
func proposalCounterKey() host.Key { return host.TaggedKey{Tag: keyTagProposalCounter} }

func proposalKey(id uint64) host.Key {
	return host.TaggedKey{Tag: keyTagProposal, Suffix: host.Uint64Suffix(id)}
}

func voteKey(id uint64, voter crypto.Address) host.Key {
	return host.TaggedKey{Tag: keyTagVote, Suffix: host.JoinSuffix(host.Uint64Suffix(id), voter.Bytes())}
}
