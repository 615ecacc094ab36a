package gateway

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stellarguard/crypto"
	"stellarguard/native/treasury"
)

func (s *Server) treasuryRoutes(r chi.Router) {
	r.Post("/initialize", s.treasuryInitialize)
	r.Post("/deposits", s.treasuryDeposit)
	r.Post("/withdrawals", s.treasuryPropose)
	r.Post("/withdrawals/{id}/approvals", s.treasuryApprove)
	r.Post("/withdrawals/{id}/execute", s.treasuryExecute)
	r.Post("/signers/add", s.treasuryAddSigner)
	r.Post("/signers/remove", s.treasuryRemoveSigner)
	r.Post("/threshold", s.treasurySetThreshold)
	r.Post("/admin/transfer", s.treasuryTransferAdmin)
	r.Get("/balance", s.treasuryBalance)
	r.Get("/withdrawals/{id}", s.treasuryTransaction)
	r.Get("/signers", s.treasurySigners)
}

func transactionID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) treasuryInitialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Admin     string   `json:"admin"`
		Threshold uint32   `json:"threshold"`
		Signers   []string `json:"signers"`
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
	signers := make([]crypto.Address, 0, len(req.Signers))
	for _, raw := range req.Signers {
		signer, err := parseAddress("signers", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, 0, err.Error())
			return
		}
		signers = append(signers, signer)
	}
	if err := s.invoke(r, "treasury", "initialize", admin, func() error {
		return s.engines.Treasury.Initialize(admin, req.Threshold, signers)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"admin":        admin.String(),
		"threshold":    req.Threshold,
		"signer_count": len(signers),
	})
}

func (s *Server) treasuryDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   string `json:"from"`
		Amount string `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if err := s.invoke(r, "treasury", "deposit", from, func() error {
		return s.engines.Treasury.Deposit(from, amount)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"amount": amount.String()})
}

func (s *Server) treasuryPropose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Proposer string `json:"proposer"`
		To       string `json:"to"`
		Amount   string `json:"amount"`
		Memo     string `json:"memo"`
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
	to, err := parseAddress("to", req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	var id uint64
	if err := s.invoke(r, "treasury", "propose_withdrawal", proposer, func() error {
		id, err = s.engines.Treasury.ProposeWithdrawal(proposer, to, amount, req.Memo)
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (s *Server) treasuryApprove(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid transaction id")
		return
	}
	var req struct {
		Signer string `json:"signer"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	signer, err := parseAddress("signer", req.Signer)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	var count uint32
	if err := s.invoke(r, "treasury", "approve", signer, func() error {
		count, err = s.engines.Treasury.Approve(signer, id)
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "approval_count": count})
}

func (s *Server) treasuryExecute(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid transaction id")
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
	if err := s.invoke(r, "treasury", "execute", executor, func() error {
		return s.engines.Treasury.Execute(executor, id)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "executed": true})
}

func (s *Server) treasuryAddSigner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Signer string `json:"signer"`
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
	signer, err := parseAddress("signer", req.Signer)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if err := s.invoke(r, "treasury", "add_signer", caller, func() error {
		return s.engines.Treasury.AddSigner(caller, signer)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"signer": signer.String()})
}

func (s *Server) treasuryRemoveSigner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Signer string `json:"signer"`
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
	signer, err := parseAddress("signer", req.Signer)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if err := s.invoke(r, "treasury", "remove_signer", caller, func() error {
		return s.engines.Treasury.RemoveSigner(caller, signer)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"signer": signer.String()})
}

func (s *Server) treasurySetThreshold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller    string `json:"caller"`
		Threshold uint32 `json:"threshold"`
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
	if err := s.invoke(r, "treasury", "set_threshold", caller, func() error {
		return s.engines.Treasury.SetThreshold(caller, req.Threshold)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint32{"threshold": req.Threshold})
}

func (s *Server) treasuryTransferAdmin(w http.ResponseWriter, r *http.Request) {
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
	if err := s.invoke(r, "treasury", "transfer_admin", current, func() error {
		return s.engines.Treasury.TransferAdmin(current, newAdmin)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"admin": newAdmin.String()})
}

func (s *Server) treasuryBalance(w http.ResponseWriter, r *http.Request) {
	var balance *big.Int
	var err error
	if err = s.view("treasury", "get_balance", func() error {
		balance, err = s.engines.Treasury.Balance()
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (s *Server) treasuryTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid transaction id")
		return
	}
	var tx *treasury.Transaction
	if err := s.view("treasury", "get_transaction", func() error {
		tx, err = s.engines.Treasury.Transaction(id)
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	approvals := make([]string, 0, len(tx.Approvals))
	for _, approver := range tx.Approvals {
		approvals = append(approvals, approver.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         tx.ID,
		"to":         tx.To.String(),
		"amount":     tx.Amount.String(),
		"memo":       tx.Memo,
		"approvals":  approvals,
		"executed":   tx.Executed,
		"created_at": tx.CreatedAt,
		"proposer":   tx.Proposer.String(),
	})
}

func (s *Server) treasurySigners(w http.ResponseWriter, r *http.Request) {
	var signers []crypto.Address
	var err error
	if err = s.view("treasury", "get_signers", func() error {
		signers, err = s.engines.Treasury.Signers()
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	out := make([]string, 0, len(signers))
	for _, signer := range signers {
		out = append(out, signer.String())
	}
	writeJSON(w, http.StatusOK, map[string][]string{"signers": out})
}
