package core

import (
	"context"
	"testing"
)

func envLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestEnvRawLoaderBuildsNestedLayer(t *testing.T) {
	loader := EnvRawLoader{Lookup: envLookup(map[string]string{
		"AGENT_ENV":                   "production",
		"AGENT_HTTP_PORT":             "8080",
		"AGENT_DB_DRIVER":             "postgres",
		"AGENT_DB_DSN":                "postgres://agent@localhost/agent",
		"AGENT_STRIPE_WEBHOOK_SECRET": "whsec_test",
		"AGENT_BRIEFING_SOURCES":      "https://a.example, https://b.example",
	})}

	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if raw["environment"] != "production" {
		t.Fatalf("expected environment layered, got %v", raw["environment"])
	}
	httpLayer, ok := raw["http"].(map[string]any)
	if !ok || httpLayer["port"] != 8080 {
		t.Fatalf("expected http.port 8080, got %v", raw["http"])
	}
	gateways, ok := raw["gateways"].(map[string]any)
	if !ok {
		t.Fatalf("expected gateways layer, got %v", raw["gateways"])
	}
	stripe, ok := gateways["stripe"].(map[string]any)
	if !ok || stripe["webhook_secret"] != "whsec_test" {
		t.Fatalf("expected stripe webhook secret, got %v", gateways["stripe"])
	}
	briefing, ok := raw["briefing"].(map[string]any)
	if !ok {
		t.Fatalf("expected briefing layer")
	}
	sources, ok := briefing["sources"].([]string)
	if !ok || len(sources) != 2 || sources[1] != "https://b.example" {
		t.Fatalf("expected two trimmed sources, got %v", briefing["sources"])
	}
}

func TestEnvRawLoaderRejectsBadPort(t *testing.T) {
	loader := EnvRawLoader{Lookup: envLookup(map[string]string{
		"AGENT_HTTP_PORT": "not-a-port",
	})}
	if _, err := loader.LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected parse error for bad port")
	}
}

func TestGoOptionsResolverPrecedence(t *testing.T) {
	defaults := DefaultConfig()

	loaded := Config{Environment: EnvStaging, HTTP: HTTPConfig{Port: 6000}}
	runtime := Config{HTTP: HTTPConfig{Port: 7000}}

	resolved, err := (GoOptionsResolver{}).Resolve(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Environment != EnvStaging {
		t.Fatalf("expected loaded environment to win over defaults, got %q", resolved.Environment)
	}
	if resolved.HTTP.Port != 7000 {
		t.Fatalf("expected runtime port to win, got %d", resolved.HTTP.Port)
	}
	if resolved.ServiceName != defaults.ServiceName {
		t.Fatalf("expected default service name preserved, got %q", resolved.ServiceName)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	bad := cfg
	bad.Environment = "qa"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected unknown environment to fail validation")
	}

	bad = cfg
	bad.Database.Driver = "mysql"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected unsupported driver to fail validation")
	}

	bad = cfg
	bad.Environment = EnvProduction
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected production without webhook secrets to fail validation")
	}

	bad.Gateways.Stripe.WebhookSecret = "whsec_live"
	bad.Gateways.PayPal.WebhookSecret = "pp_live"
	if err := bad.Validate(); err != nil {
		t.Fatalf("production with secrets should validate: %v", err)
	}
}
