package gateway

import (
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stellarguard/crypto"
	"stellarguard/native/governance"
)

func (s *Server) govRoutes(r chi.Router) {
	r.Post("/initialize", s.govInitialize)
	r.Post("/proposals", s.govCreateProposal)
	r.Post("/proposals/{id}/votes", s.govVote)
	r.Post("/proposals/{id}/finalize", s.govFinalize)
	r.Post("/proposals/{id}/execute", s.govExecute)
	r.Post("/admin/transfer", s.govTransferAdmin)
	r.Post("/quorum", s.govSetQuorum)
	r.Post("/upgrade", s.govUpgrade)
	r.Get("/proposals/{id}", s.govProposal)
	r.Get("/members", s.govMembers)
}

func proposalID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) govInitialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Admin         string   `json:"admin"`
		Members       []string `json:"members"`
		QuorumPercent uint32   `json:"quorum_percent"`
		VotingPeriod  uint32   `json:"voting_period"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	admin, err := parseAddress("admin", req.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	members := make([]crypto.Address, 0, len(req.Members))
	for _, raw := range req.Members {
		member, err := parseAddress("members", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, 0, err.Error())
			return
		}
		members = append(members, member)
	}
	if err := s.invoke(r, "gov", "initialize", admin, func() error {
		return s.engines.Governance.Initialize(admin, members, req.QuorumPercent, req.VotingPeriod)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"admin":        admin.String(),
		"member_count": len(members),
	})
}

func (s *Server) govCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Proposer    string `json:"proposer"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Action      string `json:"action"`
		Amount      string `json:"amount"`
		Target      string `json:"target"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	proposer, err := parseAddress("proposer", req.Proposer)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	action, err := parseAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	target := crypto.ZeroAddress()
	if req.Target != "" {
		if target, err = parseAddress("target", req.Target); err != nil {
			writeError(w, http.StatusBadRequest, 0, err.Error())
			return
		}
	}
	var id uint64
	if err := s.invoke(r, "gov", "create_proposal", proposer, func() error {
		id, err = s.engines.Governance.CreateProposal(proposer, req.Title, req.Description, action, amount, target)
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (s *Server) govVote(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid proposal id")
		return
	}
	var req struct {
		Voter   string `json:"voter"`
		VoteFor bool   `json:"vote_for"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	voter, err := parseAddress("voter", req.Voter)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if err := s.invoke(r, "gov", "vote", voter, func() error {
		return s.engines.Governance.Vote(voter, id, req.VoteFor)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "vote_for": req.VoteFor})
}

func (s *Server) govFinalize(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid proposal id")
		return
	}
	var req struct {
		Caller string `json:"caller"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	var status governance.ProposalStatus
	if err := s.invoke(r, "gov", "finalize", caller, func() error {
		status, err = s.engines.Governance.Finalize(caller, id)
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status.String()})
}

func (s *Server) govExecute(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid proposal id")
		return
	}
	var req struct {
		Executor string `json:"executor"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	executor, err := parseAddress("executor", req.Executor)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if err := s.invoke(r, "gov", "execute_proposal", executor, func() error {
		return s.engines.Governance.ExecuteProposal(executor, id)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": governance.StatusExecuted.String()})
}

func (s *Server) govTransferAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current  string `json:"current"`
		NewAdmin string `json:"new_admin"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	current, err := parseAddress("current", req.Current)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	newAdmin, err := parseAddress("new_admin", req.NewAdmin)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if err := s.invoke(r, "gov", "transfer_admin", current, func() error {
		return s.engines.Governance.TransferAdmin(current, newAdmin)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"admin": newAdmin.String()})
}

func (s *Server) govSetQuorum(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller        string `json:"caller"`
		QuorumPercent uint32 `json:"quorum_percent"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if err := s.invoke(r, "gov", "set_quorum", caller, func() error {
		return s.engines.Governance.SetQuorum(caller, req.QuorumPercent)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint32{"quorum_percent": req.QuorumPercent})
}

func (s *Server) govUpgrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller   string `json:"caller"`
		WASMHash string `json:"wasm_hash"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	raw, err := hex.DecodeString(req.WASMHash)
	if err != nil || len(raw) != 32 {
		writeError(w, http.StatusBadRequest, 0, "wasm_hash must be 32 hex-encoded bytes")
		return
	}
	var hash [32]byte
	copy(hash[:], raw)
	if err := s.invoke(r, "gov", "upgrade", caller, func() error {
		return s.engines.Governance.Upgrade(caller, hash)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"wasm_hash": req.WASMHash})
}

func (s *Server) govProposal(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid proposal id")
		return
	}
	var proposal *governance.Proposal
	if err := s.view("gov", "get_proposal", func() error {
		proposal, err = s.engines.Governance.Proposal(id)
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            proposal.ID,
		"title":         proposal.Title,
		"description":   proposal.Description,
		"action":        proposal.Action.String(),
		"proposer":      proposal.Proposer.String(),
		"votes_for":     proposal.VotesFor,
		"votes_against": proposal.VotesAgainst,
		"total_votes":   proposal.TotalVotes,
		"status":        proposal.Status.String(),
		"created_at":    proposal.CreatedAt,
		"ends_at":       proposal.EndsAt,
		"amount":        proposal.Amount.String(),
		"target":        proposal.Target.String(),
	})
}

func (s *Server) govMembers(w http.ResponseWriter, r *http.Request) {
	var members []crypto.Address
	var err error
	if err = s.view("gov", "get_members", func() error {
		members, err = s.engines.Governance.Members()
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	out := make([]string, 0, len(members))
	for _, member := range members {
		out = append(out, member.String())
	}
	writeJSON(w, http.StatusOK, map[string][]string{"members": out})
}
