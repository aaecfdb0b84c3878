package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct{}

func (staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

// EnvRawLoader reads AGENT_* environment variables into the raw config layer.
type EnvRawLoader struct {
	Lookup func(key string) (string, bool)
}

func (l EnvRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	raw := map[string]any{}
	set := func(path string, value any) {
		node := raw
		parts := strings.Split(path, ".")
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}

	str := func(env, path string) {
		if value, ok := lookup(env); ok && strings.TrimSpace(value) != "" {
			set(path, strings.TrimSpace(value))
		}
	}

	str("AGENT_SERVICE_NAME", "service_name")
	str("AGENT_ENV", "environment")
	if value, ok := lookup("AGENT_HTTP_PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("core: parse AGENT_HTTP_PORT: %w", err)
		}
		set("http.port", port)
	}
	str("AGENT_DB_DRIVER", "database.driver")
	str("AGENT_DB_DSN", "database.dsn")
	str("AGENT_STRIPE_WEBHOOK_SECRET", "gateways.stripe.webhook_secret")
	str("AGENT_PAYPAL_WEBHOOK_SECRET", "gateways.paypal.webhook_secret")
	str("AGENT_NOTION_API_KEY", "clients.notion_api_key")
	str("AGENT_NOTION_CRM_DATABASE", "clients.notion_crm_database")
	str("AGENT_POLYGON_API_KEY", "clients.polygon_api_key")
	str("AGENT_FIRECRAWL_API_KEY", "clients.firecrawl_api_key")
	str("AGENT_OPENAI_API_KEY", "clients.openai_api_key")
	str("AGENT_ELEVENLABS_API_KEY", "clients.elevenlabs_api_key")
	str("AGENT_INVIDEO_API_KEY", "clients.invideo_api_key")
	str("AGENT_WEBFLOW_API_KEY", "clients.webflow_api_key")
	str("AGENT_WEBFLOW_COLLECTION_ID", "clients.webflow_collection_id")
	str("AGENT_LINEAR_API_KEY", "clients.linear_api_key")
	str("AGENT_LINEAR_TEAM_ID", "clients.linear_team_id")
	str("AGENT_BRIEFING_SCHEDULE", "briefing.schedule")
	if value, ok := lookup("AGENT_BRIEFING_SOURCES"); ok && strings.TrimSpace(value) != "" {
		sources := []string{}
		for _, source := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(source); trimmed != "" {
				sources = append(sources, trimmed)
			}
		}
		set("briefing.sources", sources)
	}

	return raw, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver merges defaults, loaded config, and runtime overrides
// through layered scopes so precedence stays explicit.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.Environment) != "" {
		layer["environment"] = cfg.Environment
	}
	if includeZero || cfg.HTTP.Port != 0 {
		layer["http"] = map[string]any{"port": cfg.HTTP.Port}
	}
	if includeZero || cfg.Database.Driver != "" || cfg.Database.DSN != "" {
		layer["database"] = map[string]any{
			"driver": cfg.Database.Driver,
			"dsn":    cfg.Database.DSN,
		}
	}
	if includeZero || cfg.Gateways != (GatewaysConfig{}) {
		layer["gateways"] = map[string]any{
			"stripe": map[string]any{"webhook_secret": cfg.Gateways.Stripe.WebhookSecret},
			"paypal": map[string]any{"webhook_secret": cfg.Gateways.PayPal.WebhookSecret},
		}
	}
	if includeZero || cfg.Clients != (ClientsConfig{}) {
		layer["clients"] = map[string]any{
			"notion_api_key":        cfg.Clients.NotionAPIKey,
			"notion_crm_database":   cfg.Clients.NotionCRMDatabase,
			"polygon_api_key":       cfg.Clients.PolygonAPIKey,
			"firecrawl_api_key":     cfg.Clients.FirecrawlAPIKey,
			"openai_api_key":        cfg.Clients.OpenAIAPIKey,
			"elevenlabs_api_key":    cfg.Clients.ElevenLabsAPIKey,
			"invideo_api_key":       cfg.Clients.InVideoAPIKey,
			"webflow_api_key":       cfg.Clients.WebflowAPIKey,
			"webflow_collection_id": cfg.Clients.WebflowCollectionID,
			"linear_api_key":        cfg.Clients.LinearAPIKey,
			"linear_team_id":        cfg.Clients.LinearTeamID,
		}
	}
	if includeZero || cfg.Briefing.Schedule != "" || len(cfg.Briefing.Sources) > 0 {
		layer["briefing"] = map[string]any{
			"schedule": cfg.Briefing.Schedule,
			"sources":  append([]string(nil), cfg.Briefing.Sources...),
		}
	}
	return layer
}
