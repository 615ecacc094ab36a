package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"stellarguard/crypto"
	"stellarguard/host"
	"stellarguard/native/accesscontrol"
	"stellarguard/native/governance"
	"stellarguard/native/treasury"
)

var (
	errMissingSubject  = errors.New("gateway: request has no authenticated subject")
	errSubjectMismatch = errors.New("gateway: caller does not match token subject")
)

// errorCode renders a contract error's tagged discriminant for metrics
// labels; non-contract errors yield "host".
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var (
		aclErr *accesscontrol.Error
		govErr *governance.Error
		treErr *treasury.Error
	)
	switch {
	case errors.As(err, &aclErr):
		return fmt.Sprintf("%d", aclErr.Code)
	case errors.As(err, &govErr):
		return fmt.Sprintf("%d", govErr.Code)
	case errors.As(err, &treErr):
		return fmt.Sprintf("%d", treErr.Code)
	default:
		return "host"
	}
}

// errorBody is the envelope returned for every failed request. Code carries
// the contract's tagged error discriminant when the failure originated in an
// engine; zero otherwise.
type errorBody struct {
	Error struct {
		Code    uint32 `json:"code,omitempty"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code uint32, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}

// writeContractError translates a tagged engine error into an HTTP response:
// 404 for missing entities, 403 for authority failures, 409 for lifecycle
// conflicts, and 400 for validation failures.
func writeContractError(w http.ResponseWriter, err error) {
	var (
		aclErr *accesscontrol.Error
		govErr *governance.Error
		treErr *treasury.Error
	)
	switch {
	case errors.As(err, &aclErr):
		writeError(w, aclStatus(aclErr.Code), uint32(aclErr.Code), aclErr.Error())
	case errors.As(err, &govErr):
		writeError(w, govStatus(govErr.Code), uint32(govErr.Code), govErr.Error())
	case errors.As(err, &treErr):
		writeError(w, treStatus(treErr.Code), uint32(treErr.Code), treErr.Error())
	case errors.Is(err, errMissingSubject):
		writeError(w, http.StatusUnauthorized, 0, err.Error())
	case errors.Is(err, errSubjectMismatch):
		writeError(w, http.StatusForbidden, 0, err.Error())
	case errors.Is(err, host.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, 0, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, 0, "internal error")
	}
}

func aclStatus(code accesscontrol.Code) int {
	switch code {
	case accesscontrol.CodeRoleNotFound:
		return http.StatusNotFound
	case accesscontrol.CodeUnauthorized, accesscontrol.CodeInsufficientPrivilege:
		return http.StatusForbidden
	case accesscontrol.CodeAlreadyInitialized, accesscontrol.CodeNotInitialized, accesscontrol.CodeCannotRemoveOwner:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func govStatus(code governance.Code) int {
	switch code {
	case governance.CodeProposalNotFound:
		return http.StatusNotFound
	case governance.CodeUnauthorized, governance.CodeNotAMember:
		return http.StatusForbidden
	case governance.CodeAlreadyInitialized, governance.CodeNotInitialized,
		governance.CodeVotingClosed, governance.CodeVotingStillActive,
		governance.CodeAlreadyVoted, governance.CodeProposalRejected:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func treStatus(code treasury.Code) int {
	switch code {
	case treasury.CodeTransactionNotFound:
		return http.StatusNotFound
	case treasury.CodeUnauthorized, treasury.CodeNotASigner:
		return http.StatusForbidden
	case treasury.CodeAlreadyInitialized, treasury.CodeNotInitialized,
		treasury.CodeAlreadyExecuted, treasury.CodeAlreadyApproved,
		treasury.CodeThresholdBreach, treasury.CodeAlreadySigner:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func parseAddress(field, value string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return crypto.Address{}, fmt.Errorf("%s: %w", field, err)
	}
	return addr, nil
}

func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%s must not be empty", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%s is not a base-10 integer", field)
	}
	return amount, nil
}

func parseRole(value string) (accesscontrol.Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "viewer":
		return accesscontrol.RoleViewer, nil
	case "member":
		return accesscontrol.RoleMember, nil
	case "admin":
		return accesscontrol.RoleAdmin, nil
	case "owner":
		return accesscontrol.RoleOwner, nil
	default:
		return 0, fmt.Errorf("unknown role %q", value)
	}
}

func parseAction(value string) (governance.ProposalAction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "funding":
		return governance.ActionFunding, nil
	case "policy_change":
		return governance.ActionPolicyChange, nil
	case "add_member":
		return governance.ActionAddMember, nil
	case "remove_member":
		return governance.ActionRemoveMember, nil
	case "general":
		return governance.ActionGeneral, nil
	default:
		return 0, fmt.Errorf("unknown proposal action %q", value)
	}
}
