package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stellarguard/crypto"
	"stellarguard/native/accesscontrol"
)

func (s *Server) aclRoutes(r chi.Router) {
	r.Post("/initialize", s.aclInitialize)
	r.Post("/roles/assign", s.aclAssignRole)
	r.Post("/roles/revoke", s.aclRevokeRole)
	r.Post("/ownership/transfer", s.aclTransferOwnership)
	r.Get("/roles/{address}", s.aclRole)
	r.Get("/permissions/{address}", s.aclPermission)
	r.Get("/members", s.aclMembers)
	r.Get("/summary", s.aclSummary)
}

func (s *Server) aclInitialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner string `json:"owner"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if err := s.invoke(r, "acl", "initialize", owner, func() error {
		return s.engines.AccessControl.Initialize(owner)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"owner": owner.String()})
}

func (s *Server) aclAssignRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Assignor string `json:"assignor"`
		Target   string `json:"target"`
		Role     string `json:"role"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	assignor, err := parseAddress("assignor", req.Assignor)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	target, err := parseAddress("target", req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if err := s.invoke(r, "acl", "assign_role", assignor, func() error {
		return s.engines.AccessControl.AssignRole(assignor, target, role)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"target": target.String(),
		"role":   role.String(),
	})
}

func (s *Server) aclRevokeRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Revoker string `json:"revoker"`
		Target  string `json:"target"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	revoker, err := parseAddress("revoker", req.Revoker)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	target, err := parseAddress("target", req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if err := s.invoke(r, "acl", "revoke_role", revoker, func() error {
		return s.engines.AccessControl.RevokeRole(revoker, target)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"target": target.String()})
}

func (s *Server) aclTransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current  string `json:"current"`
		NewOwner string `json:"new_owner"`
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
	newOwner, err := parseAddress("new_owner", req.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if err := s.invoke(r, "acl", "transfer_ownership", current, func() error {
		return s.engines.AccessControl.TransferOwnership(current, newOwner)
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": newOwner.String()})
}

func (s *Server) aclRole(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	var role accesscontrol.Role
	if err := s.view("acl", "get_role", func() error {
		role, err = s.engines.AccessControl.Role(addr)
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address": addr.String(),
		"role":    role.String(),
	})
}

func (s *Server) aclPermission(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	role, err := parseRole(r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	var allowed bool
	if err := s.view("acl", "has_permission", func() error {
		allowed, err = s.engines.AccessControl.HasPermission(addr, role)
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

func (s *Server) aclMembers(w http.ResponseWriter, r *http.Request) {
	var members []crypto.Address
	var err error
	if err = s.view("acl", "get_all_members", func() error {
		members, err = s.engines.AccessControl.AllMembers()
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

func (s *Server) aclSummary(w http.ResponseWriter, r *http.Request) {
	var summary *accesscontrol.Summary
	var err error
	if err = s.view("acl", "get_summary", func() error {
		summary, err = s.engines.AccessControl.Summary()
		return err
	}); err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
