package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime settings for the StellarGuard daemon.
type Config struct {
	ListenAddress string       `yaml:"listen"`
	Environment   string       `yaml:"environment"`
	DataDir       string       `yaml:"data_dir"`
	OTLPEndpoint  string       `yaml:"otlp_endpoint"`
	OTLPInsecure  bool         `yaml:"otlp_insecure"`
	Auth          AuthConfig   `yaml:"auth"`
	Ledger        LedgerConfig `yaml:"ledger"`
	Genesis       Genesis      `yaml:"genesis"`
}

// AuthConfig describes the bearer-token authentication accepted by the
// gateway. The verified token subject is the address the host treats as
// having authorized the invocation.
type AuthConfig struct {
	Enabled          bool   `yaml:"enabled"`
	HMACSecret       string `yaml:"hmac_secret"`
	Issuer           string `yaml:"issuer"`
	Audience         string `yaml:"audience"`
	ClockSkewSeconds uint32 `yaml:"clock_skew_seconds"`
}

// ClockSkew returns the configured verification tolerance.
func (a AuthConfig) ClockSkew() time.Duration {
	if a.ClockSkewSeconds == 0 {
		return 2 * time.Minute
	}
	return time.Duration(a.ClockSkewSeconds) * time.Second
}

// LedgerConfig pins the wall-clock ledger: sequence zero at the genesis
// instant, advancing one ledger per interval.
type LedgerConfig struct {
	GenesisUnix     int64  `yaml:"genesis_unix"`
	IntervalSeconds uint32 `yaml:"interval_seconds"`
}

// Interval returns the ledger close interval.
func (l LedgerConfig) Interval() time.Duration {
	if l.IntervalSeconds == 0 {
		return 5 * time.Second
	}
	return time.Duration(l.IntervalSeconds) * time.Second
}

// Genesis seeds the three contracts on first start. Addresses are bech32
// strings and are decoded when the daemon applies the genesis block.
type Genesis struct {
	AccessControl AccessControlGenesis `yaml:"access_control"`
	Governance    GovernanceGenesis    `yaml:"governance"`
	Treasury      TreasuryGenesis      `yaml:"treasury"`
}

// AccessControlGenesis holds the initial owner of the role hierarchy.
type AccessControlGenesis struct {
	Owner string `yaml:"owner"`
}

// GovernanceGenesis holds the initial electorate and voting parameters.
type GovernanceGenesis struct {
	Admin         string   `yaml:"admin"`
	Members       []string `yaml:"members"`
	QuorumPercent uint32   `yaml:"quorum_percent"`
	VotingPeriod  uint32   `yaml:"voting_period"`
}

// TreasuryGenesis holds the initial signer set and approval threshold.
type TreasuryGenesis struct {
	Admin     string   `yaml:"admin"`
	Threshold uint32   `yaml:"threshold"`
	Signers   []string `yaml:"signers"`
}

// Load reads, parses, and validates a YAML config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8080"
	}
	if c.Genesis.Governance.QuorumPercent == 0 {
		c.Genesis.Governance.QuorumPercent = 50
	}
	if c.Genesis.Governance.VotingPeriod == 0 {
		// Roughly one day at the default five-second ledger interval.
		c.Genesis.Governance.VotingPeriod = 17_280
	}
}

// Validate checks the cross-field constraints that would otherwise only
// surface as contract errors at genesis time.
func (c *Config) Validate() error {
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.HMACSecret) == "" {
		return fmt.Errorf("config: auth enabled without hmac_secret")
	}
	gov := c.Genesis.Governance
	if gov.Admin != "" {
		if gov.QuorumPercent < 1 || gov.QuorumPercent > 100 {
			return fmt.Errorf("config: governance quorum_percent %d out of [1,100]", gov.QuorumPercent)
		}
		if len(gov.Members) == 0 {
			return fmt.Errorf("config: governance genesis requires members")
		}
	}
	tr := c.Genesis.Treasury
	if tr.Admin != "" {
		if tr.Threshold < 1 || int(tr.Threshold) > len(tr.Signers) {
			return fmt.Errorf("config: treasury threshold %d out of [1,%d]", tr.Threshold, len(tr.Signers))
		}
	}
	return nil
}
