// Package gateway exposes the three StellarGuard contracts over HTTP: a chi
// router with bearer-token authentication, request correlation, prometheus
// metrics, and OpenTelemetry instrumentation. One gateway fronts one host;
// contract invocations are serialized the way host transactions are.
package gateway

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"stellarguard/crypto"
	"stellarguard/gateway/middleware"
	"stellarguard/host"
	"stellarguard/native/accesscontrol"
	"stellarguard/native/governance"
	"stellarguard/native/treasury"
	"stellarguard/observability"
)

// Engines bundles the contract engines the gateway fronts.
type Engines struct {
	AccessControl *accesscontrol.Engine
	Governance    *governance.Engine
	Treasury      *treasury.Engine
}

// Server routes HTTP requests into contract invocations.
type Server struct {
	log         *slog.Logger
	engines     Engines
	authSet     *host.AuthorizedSet
	authEnabled bool
	authn       *middleware.Authenticator
	metrics     *observability.ContractMetrics

	// mu serializes contract invocations; each entry point is one host
	// transaction and the host executes them in ledger order.
	mu sync.Mutex
}

// New constructs a gateway over the given engines. authSet must be the same
// oracle the engines' environments consult; the gateway seeds it with the
// authenticated subject for the duration of each invocation.
func New(engines Engines, authSet *host.AuthorizedSet, authCfg middleware.AuthConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		log:         logger,
		engines:     engines,
		authSet:     authSet,
		authEnabled: authCfg.Enabled,
		authn:       middleware.NewAuthenticator(authCfg, logger),
		metrics:     observability.Contracts(),
	}
}

// Router assembles the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(g chi.Router) {
		g.Use(s.authn.Middleware())
		g.Route("/v1/acl", s.aclRoutes)
		g.Route("/v1/gov", s.govRoutes)
		g.Route("/v1/treasury", s.treasuryRoutes)
	})

	return otelhttp.NewHandler(r, "stellarguard.gateway")
}

// invoke runs one contract entry point as the given caller. The caller must
// match the authenticated token subject; with authentication disabled the
// caller is trusted as-is (development mode). The subject authorizes the
// host auth oracle only for the duration of the invocation.
func (s *Server) invoke(r *http.Request, contract, op string, caller crypto.Address, fn func() error) error {
	if s.authEnabled {
		subject, ok := middleware.Subject(r.Context())
		if !ok {
			return errMissingSubject
		}
		if subject != caller {
			return errSubjectMismatch
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.authSet.Authorize(caller)
	defer s.authSet.Revoke(caller)

	start := time.Now()
	err := fn()
	s.metrics.Observe(contract, op, err, time.Since(start), errorCode(err))
	if err != nil {
		s.log.Info("contract invocation failed",
			"contract", contract,
			"op", op,
			"caller", caller.String(),
			"request_id", middleware.RequestIDFrom(r.Context()),
			"error", err,
		)
	}
	return err
}

// view runs a read-only entry point with metrics but no auth seeding.
func (s *Server) view(contract, op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	err := fn()
	s.metrics.Observe(contract, op, err, time.Since(start), errorCode(err))
	return err
}
