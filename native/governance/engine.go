package governance

import (
	"math/big"

	"stellarguard/core/events"
	"stellarguard/crypto"
	"stellarguard/host"
	"stellarguard/native/common"
)

// Engine implements the governance contract: a membership electorate, a
// monotonically numbered proposal book, double-vote prevention, and
// quorum/majority finalization. Every entry point follows the
// gated-operation ordering initialized -> membership -> require_auth ->
// business validation, and performs no write before its last validation so a
// failed call leaves no partial state behind.
type Engine struct {
	env *host.Env
}

// NewEngine binds the contract logic to its host environment.
func NewEngine(env *host.Env) *Engine {
	return &Engine{env: env}
}

// Initialize sets up the contract with its admin, electorate, quorum
// percentage, and voting period in ledger-sequence units. It can succeed at
// most once.
func (e *Engine) Initialize(admin crypto.Address, members []crypto.Address, quorumPercent uint32, votingPeriod uint32) error {
	initialized, err := e.initialized()
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}
	if err := e.env.RequireAuth(admin); err != nil {
		return ErrUnauthorized
	}
	if quorumPercent < 1 || quorumPercent > 100 {
		return ErrInvalidQuorum
	}
	if len(members) == 0 || votingPeriod == 0 {
		return ErrInvalidProposal
	}
	electorate := make([]crypto.Address, 0, len(members))
	for _, member := range members {
		if member.IsZero() {
			return ErrInvalidProposal
		}
		electorate, _ = common.AppendAddress(electorate, member)
	}

	if err := e.env.Instance().Set(adminKey(), admin); err != nil {
		return err
	}
	if err := e.putMembers(electorate); err != nil {
		return err
	}
	if err := e.env.Instance().Set(quorumKey(), quorumPercent); err != nil {
		return err
	}
	if err := e.env.Instance().Set(votingPeriodKey(), votingPeriod); err != nil {
		return err
	}
	if err := e.env.Instance().Set(proposalCounterKey(), uint64(0)); err != nil {
		return err
	}

	e.env.Emit(events.GovInitialized{
		Admin:         admin,
		MemberCount:   uint32(len(electorate)),
		QuorumPercent: quorumPercent,
	})
	return nil
}

// CreateProposal admits a new proposal into the book and returns its
// identifier. IDs are allocated strictly increasing with no gaps; a failed
// call does not advance the counter.
func (e *Engine) CreateProposal(proposer crypto.Address, title, description string, action ProposalAction, amount *big.Int, target crypto.Address) (uint64, error) {
	initialized, err := e.initialized()
	if err != nil {
		return 0, err
	}
	if !initialized {
		return 0, ErrNotInitialized
	}
	members, err := e.members()
	if err != nil {
		return 0, err
	}
	if !common.ContainsAddress(members, proposer) {
		return 0, ErrNotAMember
	}
	if err := e.env.RequireAuth(proposer); err != nil {
		return 0, ErrUnauthorized
	}
	if title == "" || description == "" {
		return 0, ErrInvalidProposal
	}
	if !action.Valid() {
		return 0, ErrInvalidProposal
	}
	if amount == nil || amount.Sign() < 0 || !common.WithinI128(amount) {
		return 0, ErrInvalidProposal
	}
	if action.MutatesMembers() && target.IsZero() {
		return 0, ErrInvalidProposal
	}

	counter, err := e.proposalCounter()
	if err != nil {
		return 0, err
	}
	id, err := common.AddUint64(counter, 1)
	if err != nil {
		return 0, ErrOverflow
	}
	period, err := e.votingPeriod()
	if err != nil {
		return 0, err
	}
	createdAt := uint64(e.env.Ledger().Sequence())
	endsAt, err := common.AddUint64(createdAt, uint64(period))
	if err != nil {
		return 0, ErrOverflow
	}

	proposal := &Proposal{
		ID:          id,
		Title:       title,
		Description: description,
		Action:      action,
		Proposer:    proposer,
		Status:      StatusActive,
		CreatedAt:   createdAt,
		EndsAt:      endsAt,
		Amount:      new(big.Int).Set(amount),
		Target:      target,
	}
	if err := e.putProposal(proposal); err != nil {
		return 0, err
	}
	if err := e.env.Instance().Set(proposalCounterKey(), id); err != nil {
		return 0, err
	}

	e.env.Emit(events.GovProposed{
		ID:       id,
		Proposer: proposer,
		EndsAt:   endsAt,
		Target:   target,
		Amount:   new(big.Int).Set(amount),
	})
	return id, nil
}

// Vote records the caller's ballot on an active proposal. A voter gets
// exactly one ballot per proposal; a second submission is an error rather
// than an overwrite so a member's recorded intent is never silently
// absorbed.
func (e *Engine) Vote(voter crypto.Address, proposalID uint64, voteFor bool) error {
	initialized, err := e.initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	members, err := e.members()
	if err != nil {
		return err
	}
	if !common.ContainsAddress(members, voter) {
		return ErrNotAMember
	}
	if err := e.env.RequireAuth(voter); err != nil {
		return ErrUnauthorized
	}
	proposal, ok, err := e.proposal(proposalID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProposalNotFound
	}
	if proposal.Status != StatusActive {
		return ErrVotingClosed
	}
	if uint64(e.env.Ledger().Sequence()) > proposal.EndsAt {
		return ErrVotingClosed
	}
	voted, err := e.env.Persistent().Has(voteKey(proposalID, voter))
	if err != nil {
		return err
	}
	if voted {
		return ErrAlreadyVoted
	}

	if voteFor {
		proposal.VotesFor, err = common.AddUint32(proposal.VotesFor, 1)
	} else {
		proposal.VotesAgainst, err = common.AddUint32(proposal.VotesAgainst, 1)
	}
	if err != nil {
		return ErrOverflow
	}
	proposal.TotalVotes, err = common.AddUint32(proposal.TotalVotes, 1)
	if err != nil {
		return ErrOverflow
	}

	if err := e.env.Persistent().Set(voteKey(proposalID, voter), voteFor); err != nil {
		return err
	}
	if err := e.putProposal(proposal); err != nil {
		return err
	}

	e.env.Emit(events.GovVoteCast{ID: proposalID, Voter: voter, VoteFor: voteFor})
	return nil
}

// Finalize determines the outcome of a proposal whose voting window has
// closed: Expired below quorum, Passed on a strict majority in favour,
// Rejected otherwise. Any member may finalize.
func (e *Engine) Finalize(caller crypto.Address, proposalID uint64) (ProposalStatus, error) {
	initialized, err := e.initialized()
	if err != nil {
		return 0, err
	}
	if !initialized {
		return 0, ErrNotInitialized
	}
	members, err := e.members()
	if err != nil {
		return 0, err
	}
	if !common.ContainsAddress(members, caller) {
		return 0, ErrNotAMember
	}
	if err := e.env.RequireAuth(caller); err != nil {
		return 0, ErrUnauthorized
	}
	proposal, ok, err := e.proposal(proposalID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrProposalNotFound
	}
	if proposal.Status != StatusActive {
		return 0, ErrVotingClosed
	}
	if uint64(e.env.Ledger().Sequence()) <= proposal.EndsAt {
		return 0, ErrVotingStillActive
	}

	quorumPercent, err := e.quorumPercent()
	if err != nil {
		return 0, err
	}
	quorumThreshold := uint64(len(members)) * uint64(quorumPercent) / 100
	switch {
	case uint64(proposal.TotalVotes) < quorumThreshold:
		proposal.Status = StatusExpired
	case proposal.VotesFor > proposal.VotesAgainst:
		proposal.Status = StatusPassed
	default:
		proposal.Status = StatusRejected
	}
	if err := e.putProposal(proposal); err != nil {
		return 0, err
	}

	e.env.Emit(events.GovFinalized{ID: proposalID, Status: proposal.Status.String()})
	return proposal.Status, nil
}

// ExecuteProposal applies a passed proposal. Member-mutation actions adjust
// the electorate idempotently; all other actions are executed externally by
// the operator. Only the stored admin or the proposal's proposer may
// execute.
func (e *Engine) ExecuteProposal(executor crypto.Address, proposalID uint64) error {
	initialized, err := e.initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	if err := e.env.RequireAuth(executor); err != nil {
		return ErrUnauthorized
	}
	proposal, ok, err := e.proposal(proposalID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProposalNotFound
	}
	if proposal.Status != StatusPassed {
		return ErrProposalRejected
	}
	admin, err := e.admin()
	if err != nil {
		return err
	}
	if executor != admin && executor != proposal.Proposer {
		return ErrUnauthorized
	}

	switch proposal.Action {
	case ActionAddMember:
		members, err := e.members()
		if err != nil {
			return err
		}
		if updated, changed := common.AppendAddress(members, proposal.Target); changed {
			if err := e.putMembers(updated); err != nil {
				return err
			}
		}
	case ActionRemoveMember:
		members, err := e.members()
		if err != nil {
			return err
		}
		if updated, changed := common.RemoveAddress(members, proposal.Target); changed {
			if err := e.putMembers(updated); err != nil {
				return err
			}
		}
	}

	proposal.Status = StatusExecuted
	if err := e.putProposal(proposal); err != nil {
		return err
	}

	e.env.Emit(events.GovExecuted{ID: proposalID, Executor: executor})
	return nil
}

// TransferAdmin moves the admin slot from current to newAdmin.
func (e *Engine) TransferAdmin(current, newAdmin crypto.Address) error {
	admin, err := e.requireAdmin(current)
	if err != nil {
		return err
	}
	if newAdmin.IsZero() {
		return ErrInvalidProposal
	}
	if err := e.env.Instance().Set(adminKey(), newAdmin); err != nil {
		return err
	}
	e.env.Emit(events.GovAdminTransferred{OldAdmin: admin, NewAdmin: newAdmin})
	return nil
}

// SetQuorum updates the quorum percentage.
func (e *Engine) SetQuorum(caller crypto.Address, quorumPercent uint32) error {
	if _, err := e.requireAdmin(caller); err != nil {
		return err
	}
	if quorumPercent < 1 || quorumPercent > 100 {
		return ErrInvalidQuorum
	}
	if err := e.env.Instance().Set(quorumKey(), quorumPercent); err != nil {
		return err
	}
	e.env.Emit(events.GovQuorumUpdated{QuorumPercent: quorumPercent})
	return nil
}

// Upgrade swaps the contract code for the given WASM hash via the host
// deployer. Admin only.
func (e *Engine) Upgrade(caller crypto.Address, wasmHash [32]byte) error {
	if _, err := e.requireAdmin(caller); err != nil {
		return err
	}
	return e.env.UpdateCurrentContractWASM(wasmHash)
}

func (e *Engine) requireAdmin(caller crypto.Address) (crypto.Address, error) {
	initialized, err := e.initialized()
	if err != nil {
		return crypto.Address{}, err
	}
	if !initialized {
		return crypto.Address{}, ErrNotInitialized
	}
	admin, err := e.admin()
	if err != nil {
		return crypto.Address{}, err
	}
	if caller != admin {
		return crypto.Address{}, ErrUnauthorized
	}
	if err := e.env.RequireAuth(caller); err != nil {
		return crypto.Address{}, ErrUnauthorized
	}
	return admin, nil
}

// --- read entry points ---

// Proposal returns the stored proposal for the given identifier.
func (e *Engine) Proposal(proposalID uint64) (*Proposal, error) {
	initialized, err := e.initialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, ErrNotInitialized
	}
	proposal, ok, err := e.proposal(proposalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProposalNotFound
	}
	return proposal, nil
}

// Members returns the current electorate in insertion order.
func (e *Engine) Members() ([]crypto.Address, error) {
	initialized, err := e.initialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, ErrNotInitialized
	}
	return e.members()
}

// VoteOf reports whether voter has a recorded ballot on the proposal and, if
// so, its direction.
func (e *Engine) VoteOf(proposalID uint64, voter crypto.Address) (voteFor bool, found bool, err error) {
	found, err = e.env.Persistent().Get(voteKey(proposalID, voter), &voteFor)
	return voteFor, found, err
}

// Quorum returns the configured quorum percentage.
func (e *Engine) Quorum() (uint32, error) {
	initialized, err := e.initialized()
	if err != nil {
		return 0, err
	}
	if !initialized {
		return 0, ErrNotInitialized
	}
	return e.quorumPercent()
}

// Admin returns the stored admin address.
func (e *Engine) Admin() (crypto.Address, error) {
	initialized, err := e.initialized()
	if err != nil {
		return crypto.Address{}, err
	}
	if !initialized {
		return crypto.Address{}, ErrNotInitialized
	}
	return e.admin()
}

// ProposalCount returns the number of proposals ever created.
func (e *Engine) ProposalCount() (uint64, error) {
	initialized, err := e.initialized()
	if err != nil {
		return 0, err
	}
	if !initialized {
		return 0, ErrNotInitialized
	}
	return e.proposalCounter()
}

// --- storage accessors ---

func (e *Engine) initialized() (bool, error) {
	return e.env.Instance().Has(adminKey())
}

func (e *Engine) admin() (crypto.Address, error) {
	var admin crypto.Address
	ok, err := e.env.Instance().Get(adminKey(), &admin)
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok {
		return crypto.Address{}, ErrNotInitialized
	}
	return admin, nil
}

func (e *Engine) members() ([]crypto.Address, error) {
	var members []crypto.Address
	if _, err := e.env.Instance().Get(membersKey(), &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (e *Engine) putMembers(members []crypto.Address) error {
	return e.env.Instance().Set(membersKey(), members)
}

func (e *Engine) quorumPercent() (uint32, error) {
	var quorum uint32
	if _, err := e.env.Instance().Get(quorumKey(), &quorum); err != nil {
		return 0, err
	}
	return quorum, nil
}

func (e *Engine) votingPeriod() (uint32, error) {
	var period uint32
	if _, err := e.env.Instance().Get(votingPeriodKey(), &period); err != nil {
		return 0, err
	}
	return period, nil
}

func (e *Engine) proposalCounter() (uint64, error) {
	var counter uint64
	if _, err := e.env.Instance().Get(proposalCounterKey(), &counter); err != nil {
		return 0, err
	}
	return counter, nil
}

func (e *Engine) proposal(id uint64) (*Proposal, bool, error) {
	var proposal Proposal
	ok, err := e.env.Persistent().Get(proposalKey(id), &proposal)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	if proposal.Amount == nil {
		proposal.Amount = big.NewInt(0)
	}
	return &proposal, true, nil
}

func (e *Engine) putProposal(proposal *Proposal) error {
	return e.env.Persistent().Set(proposalKey(proposal.ID), proposal)
}
