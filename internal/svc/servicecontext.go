package svc

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"nof0-arena/internal/config"
	"nof0-arena/pkg/agentrunner"
	arenapkg "nof0-arena/pkg/arena"
	"nof0-arena/pkg/confkit"
	exchangepkg "nof0-arena/pkg/exchange"
	_ "nof0-arena/pkg/exchange/hyperliquid"
	_ "nof0-arena/pkg/exchange/sim"
	"nof0-arena/pkg/journal"
	"nof0-arena/pkg/ledger"
	llmpkg "nof0-arena/pkg/llm"
	marketpkg "nof0-arena/pkg/market"
	_ "nof0-arena/pkg/market/exchanges/hyperliquid"
	"nof0-arena/pkg/leaderboard"
	"nof0-arena/pkg/newscache"
	"nof0-arena/pkg/ratelimit"
	"nof0-arena/pkg/scoring"
	"nof0-arena/pkg/streambus"
)

// Defaults for the ambient services that have no dedicated config file
// section of their own; all are overridable via spec.md §6's canonical
// environment inputs.
const (
	defaultRateLimitMax      = 5
	defaultRateLimitWindowMs = 1000
	defaultMaxEvents         = 300
	defaultMaxLedgerSize     = 5000
)

type ServiceContext struct {
	Config config.Config

	LLMConfig      *llmpkg.Config
	LLMClient      llmpkg.LLMClient
	ExchangeConfig *exchangepkg.Config
	ExchangeProviders map[string]exchangepkg.Provider
	DefaultExchange   exchangepkg.Provider
	MarketConfig      *marketpkg.Config
	MarketProviders   map[string]marketpkg.Provider
	DefaultMarket     marketpkg.Provider

	ArenaConfig *arenapkg.FileConfig
	NewsCache   *newscache.Cache
	RateLimit   *ratelimit.Client
	Ledger      *ledger.Ledger
	Scoring     *scoring.Pool
	Leaderboard *leaderboard.Store
	StreamBus   *streambus.Bus
	Orchestrator *arenapkg.Orchestrator
	Journal      *journal.Writer

	// DBConn is optional: set only when Postgres.DataSource is configured,
	// and consumed solely by internal/persistence/ledgermirror for §5.1's
	// opt-in ledger durability. The forensic ledger itself stays in-memory
	// and never blocks its append hot path on storage.
	DBConn sqlx.SqlConn
}

func NewServiceContext(c config.Config, mainConfigPath string) *ServiceContext {
	svc := &ServiceContext{Config: c}

	baseDir := confkit.BaseDir(mainConfigPath)

	// Load LLM config if specified.
	if c.LLM.File != "" {
		llmCfg, err := llmpkg.LoadConfig(confkit.ResolvePath(baseDir, c.LLM.File))
		if err != nil {
			log.Fatalf("failed to load llm config: %v", err)
		}
		if c.IsTestEnv() {
			llmCfg.DefaultModel = "google/gemini-2.5-flash-lite"
		}
		svc.LLMConfig = llmCfg
		client, err := llmpkg.NewClient(llmCfg)
		if err != nil {
			log.Fatalf("failed to construct llm client: %v", err)
		}
		svc.LLMClient = client
	}

	// Load Exchange config if specified.
	if c.Exchange.File != "" {
		exchangeCfg, err := exchangepkg.LoadConfig(confkit.ResolvePath(baseDir, c.Exchange.File))
		if err != nil {
			log.Fatalf("failed to load exchange config: %v", err)
		}
		if c.IsTestEnv() {
			for _, provider := range exchangeCfg.Providers {
				provider.Testnet = true
			}
		}
		providers, err := exchangeCfg.BuildProviders()
		if err != nil {
			log.Fatalf("failed to build exchange providers: %v", err)
		}
		svc.ExchangeConfig = exchangeCfg
		svc.ExchangeProviders = providers
		if exchangeCfg.Default != "" {
			svc.DefaultExchange = providers[exchangeCfg.Default]
		}
	}

	// Load Market config if specified.
	if c.Market.File != "" {
		marketCfg, err := marketpkg.LoadConfig(confkit.ResolvePath(baseDir, c.Market.File))
		if err != nil {
			log.Fatalf("failed to load market config: %v", err)
		}
		providers, err := marketCfg.BuildProviders()
		if err != nil {
			log.Fatalf("failed to build market providers: %v", err)
		}
		svc.MarketConfig = marketCfg
		svc.MarketProviders = providers
		if marketCfg.Default != "" {
			svc.DefaultMarket = providers[marketCfg.Default]
		}
	}

	// Ambient C1/C3/C5/C6/C7/C8 services, tunable via spec.md §6 env vars.
	svc.RateLimit = ratelimit.New(ratelimit.Config{
		MaxTokens: envInt("RATE_LIMIT_MAX", defaultRateLimitMax),
		Window:    envDuration("RATE_LIMIT_WINDOW_MS", defaultRateLimitWindowMs),
	})
	svc.StreamBus = streambus.New(envInt("MAX_EVENTS", defaultMaxEvents))
	svc.Ledger = ledger.New(envInt("MAX_LEDGER_SIZE", defaultMaxLedgerSize))
	svc.Leaderboard = leaderboard.New()
	svc.Journal = journal.NewWriter(filepath.Join(c.DataPath, "journal"))

	newsCache, err := newscache.New(newscache.NoopProvider{}, newscache.DefaultTTL)
	if err != nil {
		log.Fatalf("failed to construct news cache: %v", err)
	}
	svc.NewsCache = newsCache

	// Load Arena config (round tuning + agent roster) if specified.
	if c.Arena.File != "" {
		arenaCfg, err := arenapkg.LoadConfig(confkit.ResolvePath(baseDir, c.Arena.File))
		if err != nil {
			log.Fatalf("failed to load arena config: %v", err)
		}
		arenaCfg.ApplyEnvOverrides()
		svc.ArenaConfig = arenaCfg
		svc.Scoring = scoring.NewPool(knownSymbols(arenaCfg))

		if svc.DefaultExchange == nil {
			log.Fatalf("arena config requires a default exchange provider")
		}
		if svc.LLMClient == nil {
			log.Fatalf("arena config requires an llm client")
		}

		runners := make([]*agentrunner.Runner, 0, len(arenaCfg.Agents))
		for _, agentCfg := range arenaCfg.AgentConfigs() {
			renderer, err := agentrunner.NewPromptRenderer(agentCfg.TemplatePath)
			if err != nil {
				log.Fatalf("failed to build prompt renderer for agent %s: %v", agentCfg.AgentID, err)
			}
			runner, err := agentrunner.New(agentCfg, svc.LLMClient, renderer)
			if err != nil {
				log.Fatalf("failed to construct agent runner %s: %v", agentCfg.AgentID, err)
			}
			runners = append(runners, runner)
		}

		orchestrator, err := arenapkg.New(
			arenaCfg.OrchestratorConfig(),
			runners,
			marketpkg.NewSnapshotProvider(svc.DefaultMarket),
			svc.NewsCache,
			svc.DefaultExchange,
			svc.RateLimit,
			svc.Ledger,
			svc.Scoring,
			svc.Leaderboard,
			svc.StreamBus,
			svc.Journal,
		)
		if err != nil {
			log.Fatalf("failed to construct round orchestrator: %v", err)
		}
		svc.Orchestrator = orchestrator
	}

	// Only inject a DB connection when a data source is provided; the
	// ledger and orchestrator run entirely in memory regardless. The only
	// consumer is internal/persistence/ledgermirror's opt-in durability
	// sink (§5.1 of SPEC_FULL.md).
	if c.Postgres.DataSource != "" {
		svc.DBConn = sqlx.NewSqlConn("pgx", c.Postgres.DataSource)
	}
	return svc
}

func knownSymbols(cfg *arenapkg.FileConfig) map[string]struct{} {
	out := make(map[string]struct{})
	for _, a := range cfg.AgentConfigs() {
		for _, sym := range a.PreferredSymbols {
			out[strings.ToUpper(strings.TrimSpace(sym))] = struct{}{}
		}
	}
	return out
}

func envInt(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envDuration(name string, defMs int) time.Duration {
	return time.Duration(envInt(name, defMs)) * time.Millisecond
}
