package core

import (
	"fmt"
	"strings"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

type HTTPConfig struct {
	Port int `koanf:"port" mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
}

type GatewayConfig struct {
	WebhookSecret string `koanf:"webhook_secret" mapstructure:"webhook_secret"`
}

type GatewaysConfig struct {
	Stripe GatewayConfig `koanf:"stripe" mapstructure:"stripe"`
	PayPal GatewayConfig `koanf:"paypal" mapstructure:"paypal"`
}

type ClientsConfig struct {
	NotionAPIKey        string `koanf:"notion_api_key" mapstructure:"notion_api_key"`
	NotionCRMDatabase   string `koanf:"notion_crm_database" mapstructure:"notion_crm_database"`
	PolygonAPIKey       string `koanf:"polygon_api_key" mapstructure:"polygon_api_key"`
	FirecrawlAPIKey     string `koanf:"firecrawl_api_key" mapstructure:"firecrawl_api_key"`
	OpenAIAPIKey        string `koanf:"openai_api_key" mapstructure:"openai_api_key"`
	ElevenLabsAPIKey    string `koanf:"elevenlabs_api_key" mapstructure:"elevenlabs_api_key"`
	InVideoAPIKey       string `koanf:"invideo_api_key" mapstructure:"invideo_api_key"`
	WebflowAPIKey       string `koanf:"webflow_api_key" mapstructure:"webflow_api_key"`
	WebflowCollectionID string `koanf:"webflow_collection_id" mapstructure:"webflow_collection_id"`
	LinearAPIKey        string `koanf:"linear_api_key" mapstructure:"linear_api_key"`
	LinearTeamID        string `koanf:"linear_team_id" mapstructure:"linear_team_id"`
}

type BriefingConfig struct {
	Schedule string   `koanf:"schedule" mapstructure:"schedule"`
	Sources  []string `koanf:"sources" mapstructure:"sources"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Environment string         `koanf:"environment" mapstructure:"environment"`
	HTTP        HTTPConfig     `koanf:"http" mapstructure:"http"`
	Database    DatabaseConfig `koanf:"database" mapstructure:"database"`
	Gateways    GatewaysConfig `koanf:"gateways" mapstructure:"gateways"`
	Clients     ClientsConfig  `koanf:"clients" mapstructure:"clients"`
	Briefing    BriefingConfig `koanf:"briefing" mapstructure:"briefing"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "revenue-agent",
		Environment: EnvDevelopment,
		HTTP:        HTTPConfig{Port: 5000},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "file:agent.db?_foreign_keys=on",
		},
		Briefing: BriefingConfig{
			// 07:00 daily, the briefing's publication slot.
			Schedule: "0 7 * * *",
			Sources: []string{
				"https://techcrunch.com",
				"https://news.ycombinator.com",
				"https://www.cnbc.com/markets/",
			},
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	switch strings.TrimSpace(c.Environment) {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("core: unknown environment %q", c.Environment)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("core: http port %d is out of range", c.HTTP.Port)
	}
	switch strings.TrimSpace(c.Database.Driver) {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("core: unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("core: database dsn is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.Gateways.Stripe.WebhookSecret) == "" {
			return fmt.Errorf("core: stripe webhook secret is required in production")
		}
		if strings.TrimSpace(c.Gateways.PayPal.WebhookSecret) == "" {
			return fmt.Errorf("core: paypal webhook secret is required in production")
		}
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.TrimSpace(c.Environment) == EnvProduction
}

func (c Config) GatewaySecret(gateway Gateway) string {
	switch gateway {
	case GatewayStripe:
		return strings.TrimSpace(c.Gateways.Stripe.WebhookSecret)
	case GatewayPayPal:
		return strings.TrimSpace(c.Gateways.PayPal.WebhookSecret)
	default:
		return ""
	}
}
