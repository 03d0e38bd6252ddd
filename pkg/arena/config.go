package arena

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"nof0-arena/pkg/agentrunner"
	"nof0-arena/pkg/confkit"
	"nof0-arena/pkg/riskgate"
)

// FileConfig is the on-disk shape for the arena's orchestrator tuning and
// agent roster, mirroring pkg/manager's Config/TraderConfig split.
type FileConfig struct {
	Arena  ArenaSettings      `yaml:"arena"`
	Agents []AgentFileConfig  `yaml:"agents"`

	baseDir string
}

// ArenaSettings is the YAML form of Config.
type ArenaSettings struct {
	RoundDeadline    time.Duration `yaml:"-"`
	InterAgentPacing time.Duration `yaml:"-"`
	RPCTimeout       time.Duration `yaml:"-"`
	InitialCash      float64       `yaml:"initial_cash"`
	BenchmarkVersion string        `yaml:"benchmark_version"`
	HistoryCapacity  int           `yaml:"history_capacity"`
	VelocityWindow   time.Duration `yaml:"-"`
	Risk             RiskSettings  `yaml:"risk"`

	RoundDeadlineRaw    string `yaml:"round_deadline"`
	InterAgentPacingRaw string `yaml:"inter_agent_pacing"`
	RPCTimeoutRaw       string `yaml:"rpc_timeout"`
	VelocityWindowRaw   string `yaml:"velocity_window"`
}

// RiskSettings is the YAML form of riskgate.Config.
type RiskSettings struct {
	VelocityMaxTrades int     `yaml:"velocity_max_trades"`
	PositionSizeRatio float64 `yaml:"position_size_ratio"`
	LossStreakLimit   int     `yaml:"loss_streak_limit"`
	WalletAddress     string  `yaml:"wallet_address"`
}

// AgentFileConfig is the YAML form of agentrunner.AgentConfig.
type AgentFileConfig struct {
	AgentID            string   `yaml:"id"`
	DisplayName        string   `yaml:"display_name"`
	ProviderTag        string   `yaml:"provider"`
	ModelID            string   `yaml:"model"`
	TradingStyle       string   `yaml:"trading_style"`
	RiskTolerance      float64  `yaml:"risk_tolerance"`
	PreferredSymbols   []string `yaml:"preferred_symbols"`
	CallBudgetPerRound int      `yaml:"call_budget_per_round"`
	WalletAddress      string   `yaml:"wallet_address"`
	TemplatePath       string   `yaml:"template_path"`
}

// LoadConfig reads the arena roster configuration from disk.
func LoadConfig(path string) (*FileConfig, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open arena config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file, filepath.Dir(path))
}

// LoadConfigFromReader constructs a FileConfig from a reader with the
// supplied base directory, used to resolve relative template paths.
func LoadConfigFromReader(r io.Reader, baseDir string) (*FileConfig, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read arena config: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal arena config: %w", err)
	}
	cfg.baseDir = baseDir

	cfg.applyDefaults()
	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	cfg.expandFields()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *FileConfig) applyDefaults() {
	if strings.TrimSpace(c.Arena.RoundDeadlineRaw) == "" {
		c.Arena.RoundDeadlineRaw = DefaultRoundDeadline.String()
	}
	if strings.TrimSpace(c.Arena.InterAgentPacingRaw) == "" {
		c.Arena.InterAgentPacingRaw = DefaultInterAgentPacing.String()
	}
	if strings.TrimSpace(c.Arena.RPCTimeoutRaw) == "" {
		c.Arena.RPCTimeoutRaw = DefaultRPCTimeout.String()
	}
	if strings.TrimSpace(c.Arena.VelocityWindowRaw) == "" {
		c.Arena.VelocityWindowRaw = DefaultVelocityWindow.String()
	}
	if c.Arena.InitialCash <= 0 {
		c.Arena.InitialCash = DefaultInitialCash
	}
	if c.Arena.HistoryCapacity <= 0 {
		c.Arena.HistoryCapacity = DefaultHistoryCapacity
	}
	for i := range c.Agents {
		if c.Agents[i].CallBudgetPerRound <= 0 {
			c.Agents[i].CallBudgetPerRound = agentrunner.DefaultCallBudgetPerRound
		}
		if strings.TrimSpace(c.Agents[i].TradingStyle) == "" {
			c.Agents[i].TradingStyle = string(agentrunner.StyleConservative)
		}
	}
}

func (c *FileConfig) parseDurations() error {
	var err error
	c.Arena.RoundDeadline, err = parsePositiveDuration("arena.round_deadline", c.Arena.RoundDeadlineRaw)
	if err != nil {
		return err
	}
	c.Arena.InterAgentPacing, err = parsePositiveDuration("arena.inter_agent_pacing", c.Arena.InterAgentPacingRaw)
	if err != nil {
		return err
	}
	c.Arena.RPCTimeout, err = parsePositiveDuration("arena.rpc_timeout", c.Arena.RPCTimeoutRaw)
	if err != nil {
		return err
	}
	c.Arena.VelocityWindow, err = parsePositiveDuration("arena.velocity_window", c.Arena.VelocityWindowRaw)
	if err != nil {
		return err
	}
	return nil
}

func (c *FileConfig) expandFields() {
	c.Arena.Risk.WalletAddress = strings.TrimSpace(os.ExpandEnv(c.Arena.Risk.WalletAddress))
	for i := range c.Agents {
		c.Agents[i].AgentID = strings.TrimSpace(c.Agents[i].AgentID)
		c.Agents[i].DisplayName = strings.TrimSpace(c.Agents[i].DisplayName)
		c.Agents[i].ProviderTag = strings.TrimSpace(c.Agents[i].ProviderTag)
		c.Agents[i].ModelID = strings.TrimSpace(c.Agents[i].ModelID)
		c.Agents[i].WalletAddress = strings.TrimSpace(os.ExpandEnv(c.Agents[i].WalletAddress))
		c.Agents[i].TemplatePath = c.resolvePath(c.Agents[i].TemplatePath)
	}
}

func (c *FileConfig) resolvePath(path string) string {
	path = strings.TrimSpace(os.ExpandEnv(path))
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// Validate ensures the roster is well-formed before it reaches the
// orchestrator constructor.
func (c *FileConfig) Validate() error {
	if len(c.Agents) == 0 {
		return fmt.Errorf("arena config: at least one agent must be defined")
	}
	seen := make(map[string]struct{}, len(c.Agents))
	for i, a := range c.Agents {
		if a.AgentID == "" {
			return fmt.Errorf("arena config: agents[%d].id is required", i)
		}
		if _, dup := seen[a.AgentID]; dup {
			return fmt.Errorf("arena config: duplicate agent id %q", a.AgentID)
		}
		seen[a.AgentID] = struct{}{}
		if a.ProviderTag == "" {
			return fmt.Errorf("arena config: agents[%d].provider is required", i)
		}
		if a.ModelID == "" {
			return fmt.Errorf("arena config: agents[%d].model is required", i)
		}
		if a.TemplatePath == "" {
			return fmt.Errorf("arena config: agents[%d].template_path is required", i)
		}
		if _, err := os.Stat(a.TemplatePath); err != nil {
			return fmt.Errorf("arena config: agents[%d].template_path %q not accessible: %w", i, a.TemplatePath, err)
		}
		switch agentrunner.TradingStyle(a.TradingStyle) {
		case agentrunner.StyleConservative, agentrunner.StyleAggressive, agentrunner.StyleContrarian:
		default:
			return fmt.Errorf("arena config: agents[%d].trading_style %q unsupported", i, a.TradingStyle)
		}
	}
	return nil
}

// ApplyEnvOverrides applies the T_ROUND_MS, T_RPC_MS, and BENCHMARK_VERSION
// numeric/string overrides spec.md §6 names, if present and valid.
func (c *FileConfig) ApplyEnvOverrides() {
	if ms, ok := envMillis("T_ROUND_MS"); ok {
		c.Arena.RoundDeadline = time.Duration(ms) * time.Millisecond
	}
	if ms, ok := envMillis("T_RPC_MS"); ok {
		c.Arena.RPCTimeout = time.Duration(ms) * time.Millisecond
	}
	if v := strings.TrimSpace(os.Getenv("BENCHMARK_VERSION")); v != "" {
		c.Arena.BenchmarkVersion = v
	}
}

func envMillis(name string) (int64, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	d, err := time.ParseDuration(raw + "ms")
	if err != nil || d <= 0 {
		return 0, false
	}
	return d.Milliseconds(), true
}

// OrchestratorConfig translates the YAML settings into arena.Config.
func (c *FileConfig) OrchestratorConfig() Config {
	return Config{
		RoundDeadline:    c.Arena.RoundDeadline,
		InterAgentPacing: c.Arena.InterAgentPacing,
		RPCTimeout:       c.Arena.RPCTimeout,
		InitialCash:      c.Arena.InitialCash,
		BenchmarkVersion: c.Arena.BenchmarkVersion,
		HistoryCapacity:  c.Arena.HistoryCapacity,
		VelocityWindow:   c.Arena.VelocityWindow,
		Risk: riskgate.Config{
			VelocityMaxTrades: c.Arena.Risk.VelocityMaxTrades,
			PositionSizeRatio: c.Arena.Risk.PositionSizeRatio,
			LossStreakLimit:   c.Arena.Risk.LossStreakLimit,
			WalletAddress:     c.Arena.Risk.WalletAddress,
		},
	}
}

// AgentConfigs translates the YAML roster into agentrunner.AgentConfig.
func (c *FileConfig) AgentConfigs() []agentrunner.AgentConfig {
	out := make([]agentrunner.AgentConfig, 0, len(c.Agents))
	for _, a := range c.Agents {
		out = append(out, agentrunner.AgentConfig{
			AgentID:            a.AgentID,
			DisplayName:        a.DisplayName,
			ProviderTag:        a.ProviderTag,
			ModelID:            a.ModelID,
			TradingStyle:       agentrunner.TradingStyle(a.TradingStyle),
			RiskTolerance:      a.RiskTolerance,
			PreferredSymbols:   a.PreferredSymbols,
			CallBudgetPerRound: a.CallBudgetPerRound,
			WalletAddress:      a.WalletAddress,
			TemplatePath:       a.TemplatePath,
		})
	}
	return out
}

func parsePositiveDuration(field, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("arena config: %s is required", field)
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("arena config: invalid %s %q: %w", field, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("arena config: %s must be positive, got %s", field, d)
	}
	return d, nil
}
