package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stellarguard/config"
	"stellarguard/core/events"
	"stellarguard/crypto"
	"stellarguard/gateway"
	"stellarguard/gateway/middleware"
	"stellarguard/host"
	"stellarguard/native/accesscontrol"
	"stellarguard/native/governance"
	"stellarguard/native/treasury"
	"stellarguard/observability/logging"
	telemetry "stellarguard/observability/otel"
	"stellarguard/storage"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to stellarguardd config")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("STELLARGUARD_ENV"))
	logger := logging.Setup("stellarguardd", env)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "stellarguardd",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	var db storage.Database
	if strings.TrimSpace(cfg.DataDir) == "" {
		logger.Warn("no data_dir configured, contract state is in-memory")
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		db = leveldb
	}
	defer db.Close()

	genesis := time.Unix(cfg.Ledger.GenesisUnix, 0)
	if cfg.Ledger.GenesisUnix == 0 {
		genesis = time.Now().UTC()
	}
	ledger := host.NewSystemLedger(genesis, cfg.Ledger.Interval())
	authSet := host.NewAuthorizedSet()
	emitter := eventLogger{logger: logging.Component(logger, "events")}

	build := func(contract string) *host.Env {
		return host.NewEnv(db, contract,
			host.WithLedger(ledger),
			host.WithAuth(authSet),
			host.WithEmitter(emitter),
		)
	}
	engines := gateway.Engines{
		AccessControl: accesscontrol.NewEngine(build("acl")),
		Governance:    governance.NewEngine(build("gov")),
		Treasury:      treasury.NewEngine(build("treasury")),
	}

	if err := applyGenesis(cfg, engines, authSet); err != nil {
		log.Fatalf("apply genesis: %v", err)
	}

	srv := gateway.New(engines, authSet, middleware.AuthConfig{
		Enabled:    cfg.Auth.Enabled,
		HMACSecret: cfg.Auth.HMACSecret,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		ClockSkew:  cfg.Auth.ClockSkew(),
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "addr", cfg.ListenAddress)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// applyGenesis initializes each configured contract exactly once. A contract
// that is already initialized from a previous run is left untouched.
func applyGenesis(cfg *config.Config, engines gateway.Engines, authSet *host.AuthorizedSet) error {
	withAuth := func(addr crypto.Address, fn func() error) error {
		authSet.Authorize(addr)
		defer authSet.Revoke(addr)
		err := fn()
		if errors.Is(err, accesscontrol.ErrAlreadyInitialized) ||
			errors.Is(err, governance.ErrAlreadyInitialized) ||
			errors.Is(err, treasury.ErrAlreadyInitialized) {
			return nil
		}
		return err
	}

	if raw := strings.TrimSpace(cfg.Genesis.AccessControl.Owner); raw != "" {
		owner, err := crypto.DecodeAddress(raw)
		if err != nil {
			return err
		}
		if err := withAuth(owner, func() error {
			return engines.AccessControl.Initialize(owner)
		}); err != nil {
			return err
		}
	}

	if raw := strings.TrimSpace(cfg.Genesis.Governance.Admin); raw != "" {
		admin, err := crypto.DecodeAddress(raw)
		if err != nil {
			return err
		}
		members := make([]crypto.Address, 0, len(cfg.Genesis.Governance.Members))
		for _, entry := range cfg.Genesis.Governance.Members {
			member, err := crypto.DecodeAddress(strings.TrimSpace(entry))
			if err != nil {
				return err
			}
			members = append(members, member)
		}
		if err := withAuth(admin, func() error {
			return engines.Governance.Initialize(admin, members, cfg.Genesis.Governance.QuorumPercent, cfg.Genesis.Governance.VotingPeriod)
		}); err != nil {
			return err
		}
	}

	if raw := strings.TrimSpace(cfg.Genesis.Treasury.Admin); raw != "" {
		admin, err := crypto.DecodeAddress(raw)
		if err != nil {
			return err
		}
		signers := make([]crypto.Address, 0, len(cfg.Genesis.Treasury.Signers))
		for _, entry := range cfg.Genesis.Treasury.Signers {
			signer, err := crypto.DecodeAddress(strings.TrimSpace(entry))
			if err != nil {
				return err
			}
			signers = append(signers, signer)
		}
		if err := withAuth(admin, func() error {
			return engines.Treasury.Initialize(admin, cfg.Genesis.Treasury.Threshold, signers)
		}); err != nil {
			return err
		}
	}
	return nil
}

// eventLogger surfaces contract events as structured log lines, the daemon's
// stand-in for the host event transport.
type eventLogger struct {
	logger interface {
		Info(msg string, args ...any)
	}
}

func (l eventLogger) Emit(evt events.Event) {
	args := []any{"type", evt.EventType()}
	for key, value := range evt.Attributes() {
		args = append(args, key, value)
	}
	l.logger.Info("contract event", args...)
}
