package config

import (
	"nof0-arena/pkg/exchange"
	"nof0-arena/pkg/llm"
	"nof0-arena/pkg/market"
)

// MustLoadExchange loads etc/exchange.yaml from the project root and panics on error.
// It isolates exchange config to avoid requiring other sections (LLM, Arena, etc.)
// when tests only need the exchange providers.
func MustLoadExchange() *exchange.Config {
	return exchange.MustLoad()
}

// MustBuildExchangeProviders loads exchange config from the default path
// and builds provider instances; returns the map and default provider name.
func MustBuildExchangeProviders() (map[string]exchange.Provider, string) {
	cfg := MustLoadExchange()
	providers, err := cfg.BuildProviders()
	if err != nil {
		panic(err)
	}
	return providers, cfg.Default
}

// MustLoadLLM loads etc/llm.yaml from the project root and panics on error.
func MustLoadLLM() *llm.Config {
	return llm.MustLoad()
}

// MustLoadMarket loads the default market configuration and panics on error.
func MustLoadMarket() *market.Config {
	return market.MustLoad()
}
