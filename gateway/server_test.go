package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"stellarguard/core/events"
	"stellarguard/crypto"
	"stellarguard/gateway/middleware"
	"stellarguard/host"
	"stellarguard/host/hosttest"
	"stellarguard/native/accesscontrol"
	"stellarguard/native/governance"
	"stellarguard/native/treasury"
	"stellarguard/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testSecret = "gateway-test-secret"

type testStack struct {
	server *httptest.Server
	ledger *host.ManualLedger
}

func newTestStack(t *testing.T, authEnabled bool) *testStack {
	t.Helper()
	db := storage.NewMemDB()
	ledger := host.NewManualLedger(1, 1_700_000_000)
	authSet := host.NewAuthorizedSet()
	emitter := &events.Capture{}

	build := func(contract string) *host.Env {
		return host.NewEnv(db, contract,
			host.WithLedger(ledger),
			host.WithAuth(authSet),
			host.WithEmitter(emitter),
		)
	}
	engines := Engines{
		AccessControl: accesscontrol.NewEngine(build("acl")),
		Governance:    governance.NewEngine(build("gov")),
		Treasury:      treasury.NewEngine(build("treasury")),
	}
	srv := New(engines, authSet, middleware.AuthConfig{
		Enabled:    authEnabled,
		HMACSecret: testSecret,
		Issuer:     "stellarguard",
		Audience:   "gateway",
	}, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testStack{server: ts, ledger: ledger}
}

func mintToken(t *testing.T, subject crypto.Address) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject.String(),
		"iss": "stellarguard",
		"aud": "gateway",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (s *testStack) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestTreasuryLifecycleOverHTTP(t *testing.T) {
	stack := newTestStack(t, true)
	admin := hosttest.Addr(1)
	s1, s2, s3 := hosttest.Addr(11), hosttest.Addr(12), hosttest.Addr(13)
	recipient := hosttest.Addr(30)

	resp := stack.do(t, http.MethodPost, "/v1/treasury/initialize", mintToken(t, admin), map[string]any{
		"admin":     admin.String(),
		"threshold": 2,
		"signers":   []string{s1.String(), s2.String(), s3.String()},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = stack.do(t, http.MethodPost, "/v1/treasury/deposits", mintToken(t, admin), map[string]any{
		"from":   admin.String(),
		"amount": "5000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = stack.do(t, http.MethodPost, "/v1/treasury/withdrawals", mintToken(t, s1), map[string]any{
		"proposer": s1.String(),
		"to":       recipient.String(),
		"amount":   "1000000",
		"memo":     "rent",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID uint64 `json:"id"`
	}
	decodeInto(t, resp, &created)
	require.Equal(t, uint64(1), created.ID)

	resp = stack.do(t, http.MethodPost, fmt.Sprintf("/v1/treasury/withdrawals/%d/approvals", created.ID), mintToken(t, s2), map[string]any{
		"signer": s2.String(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var approved struct {
		ApprovalCount uint32 `json:"approval_count"`
	}
	decodeInto(t, resp, &approved)
	require.Equal(t, uint32(2), approved.ApprovalCount)

	resp = stack.do(t, http.MethodPost, fmt.Sprintf("/v1/treasury/withdrawals/%d/execute", created.ID), mintToken(t, s1), map[string]any{
		"executor": s1.String(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = stack.do(t, http.MethodGet, "/v1/treasury/balance", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var balance struct {
		Balance string `json:"balance"`
	}
	decodeInto(t, resp, &balance)
	require.Equal(t, "4000000", balance.Balance)
}

func TestAuthRequired(t *testing.T) {
	stack := newTestStack(t, true)
	admin := hosttest.Addr(1)

	// No token at all.
	resp := stack.do(t, http.MethodPost, "/v1/acl/initialize", "", map[string]any{
		"owner": admin.String(),
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Token subject differs from the acting address.
	other := hosttest.Addr(2)
	resp = stack.do(t, http.MethodPost, "/v1/acl/initialize", mintToken(t, other), map[string]any{
		"owner": admin.String(),
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Garbage token.
	resp = stack.do(t, http.MethodPost, "/v1/acl/initialize", "not-a-token", map[string]any{
		"owner": admin.String(),
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Health and metrics stay open.
	resp = stack.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestACLOverHTTP(t *testing.T) {
	stack := newTestStack(t, true)
	owner := hosttest.Addr(1)
	admin := hosttest.Addr(2)

	resp := stack.do(t, http.MethodPost, "/v1/acl/initialize", mintToken(t, owner), map[string]any{
		"owner": owner.String(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = stack.do(t, http.MethodPost, "/v1/acl/roles/assign", mintToken(t, owner), map[string]any{
		"assignor": owner.String(),
		"target":   admin.String(),
		"role":     "admin",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = stack.do(t, http.MethodGet, "/v1/acl/summary", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = stack.do(t, http.MethodGet, "/v1/acl/summary", mintToken(t, owner), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary struct {
		TotalMembers uint32 `json:"total_members"`
		AdminCount   uint32 `json:"admin_count"`
	}
	decodeInto(t, resp, &summary)
	require.Equal(t, uint32(2), summary.TotalMembers)
	require.Equal(t, uint32(1), summary.AdminCount)

	// The contract's own authority rules surface as tagged errors.
	resp = stack.do(t, http.MethodPost, "/v1/acl/roles/assign", mintToken(t, admin), map[string]any{
		"assignor": admin.String(),
		"target":   hosttest.Addr(3).String(),
		"role":     "admin",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	var body struct {
		Error struct {
			Code uint32 `json:"code"`
		} `json:"error"`
	}
	decodeInto(t, resp, &body)
	require.Equal(t, uint32(accesscontrol.CodeInsufficientPrivilege), body.Error.Code)
}

func TestGovernanceOverHTTP(t *testing.T) {
	stack := newTestStack(t, false)
	admin := hosttest.Addr(1)
	m1, m2 := hosttest.Addr(11), hosttest.Addr(12)

	resp := stack.do(t, http.MethodPost, "/v1/gov/initialize", "", map[string]any{
		"admin":          admin.String(),
		"members":        []string{m1.String(), m2.String()},
		"quorum_percent": 50,
		"voting_period":  10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = stack.do(t, http.MethodPost, "/v1/gov/proposals", "", map[string]any{
		"proposer":    m1.String(),
		"title":       "fund ops",
		"description": "quarterly budget",
		"action":      "funding",
		"amount":      "250000",
		"target":      m1.String(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID uint64 `json:"id"`
	}
	decodeInto(t, resp, &created)

	resp = stack.do(t, http.MethodPost, fmt.Sprintf("/v1/gov/proposals/%d/votes", created.ID), "", map[string]any{
		"voter":    m1.String(),
		"vote_for": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = stack.do(t, http.MethodPost, fmt.Sprintf("/v1/gov/proposals/%d/votes", created.ID), "", map[string]any{
		"voter":    m2.String(),
		"vote_for": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	stack.ledger.Advance(11)
	resp = stack.do(t, http.MethodPost, fmt.Sprintf("/v1/gov/proposals/%d/finalize", created.ID), "", map[string]any{
		"caller": m1.String(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var finalized struct {
		Status string `json:"status"`
	}
	decodeInto(t, resp, &finalized)
	require.Equal(t, "passed", finalized.Status)

	resp = stack.do(t, http.MethodGet, fmt.Sprintf("/v1/gov/proposals/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var proposal struct {
		Status     string `json:"status"`
		TotalVotes uint32 `json:"total_votes"`
		Amount     string `json:"amount"`
	}
	decodeInto(t, resp, &proposal)
	require.Equal(t, "passed", proposal.Status)
	require.Equal(t, uint32(2), proposal.TotalVotes)
	require.Equal(t, "250000", proposal.Amount)
}
