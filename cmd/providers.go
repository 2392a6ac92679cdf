package main

import (
	"net/http"
	"time"

	"github.com/sells-group/places-collector/internal/config"
	"github.com/sells-group/places-collector/internal/cost"
	"github.com/sells-group/places-collector/internal/model"
	"github.com/sells-group/places-collector/internal/provider"
	"github.com/sells-group/places-collector/internal/resilience"
	"github.com/sells-group/places-collector/pkg/google"
	"github.com/sells-group/places-collector/pkg/overpass"
	"github.com/sells-group/places-collector/pkg/yelp"
)

// providerToggles are the command-line overrides of the configured providers.
type providerToggles struct {
	noGoogle bool
	useYelp  bool
	noOSM    bool
}

func httpClient(timeoutSecs int) *http.Client {
	if timeoutSecs <= 0 {
		timeoutSecs = 30
	}
	return &http.Client{Timeout: time.Duration(timeoutSecs) * time.Second}
}

// buildProviders registers the enabled adapters in query order (Google,
// OSM, Yelp) and returns them with their inter-call delays.
func buildProviders(pc config.ProvidersConfig, t providerToggles) ([]provider.Provider, map[string]time.Duration) {
	reg := provider.NewRegistry()
	keys := provider.NewKeys(pc.KeysFile)
	delays := map[string]time.Duration{}

	if pc.Google.Enabled && !t.noGoogle {
		reg.Register(provider.NewGoogle(keys.For(provider.GoogleKeyEnv),
			google.WithBaseURL(pc.Google.BaseURL),
			google.WithHTTPClient(httpClient(pc.Google.TimeoutSecs)),
		))
		delays[model.SourceGoogle] = time.Duration(pc.Google.DelayMs) * time.Millisecond
	}
	if pc.OSM.Enabled && !t.noOSM {
		client := overpass.NewClient(
			overpass.WithURL(pc.OSM.BaseURL),
			overpass.WithHTTPClient(httpClient(pc.OSM.TimeoutSecs)),
		)
		r := pc.OSM.Retry
		reg.Register(provider.NewOSM(client,
			resilience.FromRetryConfig(r.MaxAttempts, r.InitialBackoffMs, r.MaxBackoffMs, r.Multiplier)))
		delays[model.SourceOSM] = time.Duration(pc.OSM.DelayMs) * time.Millisecond
	}
	if pc.Yelp.Enabled || t.useYelp {
		reg.Register(provider.NewYelp(keys.For(provider.YelpKeyEnv), pc.Yelp.MaxRadiusM,
			yelp.WithBaseURL(pc.Yelp.BaseURL),
			yelp.WithHTTPClient(httpClient(pc.Yelp.TimeoutSecs)),
		))
		delays[model.SourceYelp] = time.Duration(pc.Yelp.DelayMs) * time.Millisecond
	}
	return reg.All(), delays
}

func ratesFromConfig(p config.PricingConfig) cost.Rates {
	return cost.Rates{PerCall: map[string]float64{
		model.SourceGoogle: p.GooglePerCall,
		model.SourceYelp:   p.YelpPerCall,
		model.SourceOSM:    p.OSMPerCall,
	}}
}
