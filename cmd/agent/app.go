package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	"github.com/omnirevenue/agent/api"
	"github.com/omnirevenue/agent/automation"
	"github.com/omnirevenue/agent/clients/elevenlabs"
	"github.com/omnirevenue/agent/clients/firecrawl"
	"github.com/omnirevenue/agent/clients/invideo"
	"github.com/omnirevenue/agent/clients/linear"
	"github.com/omnirevenue/agent/clients/notion"
	"github.com/omnirevenue/agent/clients/openai"
	"github.com/omnirevenue/agent/clients/polygon"
	"github.com/omnirevenue/agent/clients/webflow"
	"github.com/omnirevenue/agent/core"
	"github.com/omnirevenue/agent/fulfillment"
	agentmigrations "github.com/omnirevenue/agent/migrations"
	"github.com/omnirevenue/agent/providers/paypal"
	"github.com/omnirevenue/agent/providers/stripe"
	"github.com/omnirevenue/agent/reconcile"
	sqlstore "github.com/omnirevenue/agent/store/sql"
	"github.com/omnirevenue/agent/webhooks"
)

const productCacheTTL = 5 * time.Minute

// loadConfig resolves the effective configuration from three layers in
// ascending precedence: built-in defaults, AGENT_* environment variables,
// and runtime overrides coming from command flags.
func loadConfig(ctx context.Context, runtime core.Config) (core.Config, error) {
	defaults := core.DefaultConfig()
	loaded, err := core.NewCfgxConfigProvider(core.EnvRawLoader{}).Load(ctx, defaults)
	if err != nil {
		return core.Config{}, err
	}
	return core.GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
}

type app struct {
	cfg        core.Config
	logger     core.Logger
	client     *persistence.Client
	factory    *sqlstore.RepositoryFactory
	products   core.ProductStore
	dispatcher *fulfillment.Dispatcher
	intake     *automation.LeadIntake
	kpi        *automation.KpiRecompute
	briefing   *automation.Briefing
	scheduler  *automation.Scheduler
	server     *api.Server
}

type persistenceConfig struct {
	cfg core.Config
}

func (p persistenceConfig) GetDebug() bool {
	return !p.cfg.IsProduction()
}

func (p persistenceConfig) GetDriver() string {
	return p.cfg.Database.Driver
}

func (p persistenceConfig) GetServer() string {
	return p.cfg.Database.DSN
}

func (p persistenceConfig) GetPingTimeout() time.Duration {
	return 5 * time.Second
}

func (p persistenceConfig) GetOtelIdentifier() string {
	return p.cfg.ServiceName
}

func dialectFor(driver string) (schema.Dialect, string, error) {
	switch strings.TrimSpace(driver) {
	case "sqlite3":
		return sqlitedialect.New(), agentmigrations.DialectSQLite, nil
	case "postgres":
		return pgdialect.New(), agentmigrations.DialectPostgres, nil
	default:
		return nil, "", fmt.Errorf("agent: unsupported database driver %q", driver)
	}
}

func newPersistenceClient(ctx context.Context, cfg core.Config) (*persistence.Client, error) {
	dialect, migrationDialect, err := dialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("agent: open database: %w", err)
	}
	if cfg.Database.Driver == "sqlite3" {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(persistenceConfig{cfg: cfg}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("agent: new persistence client: %w", err)
	}

	_, err = agentmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != migrationDialect {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, agentmigrations.WithValidationTargets(migrationDialect))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("agent: register migrations: %w", err)
	}

	return client, nil
}

func newApp(ctx context.Context, cfg core.Config, logger core.Logger) (*app, error) {
	client, err := newPersistenceClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("agent: migrate: %w", err)
	}

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		factory: factory,
	}
	if err := a.wire(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg
	factory := a.factory

	cacheConfig := repositorycache.DefaultConfig()
	cacheConfig.TTL = productCacheTTL
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		return fmt.Errorf("agent: new product cache: %w", err)
	}
	products, err := sqlstore.NewCachedProductStore(factory.ProductStore(), cacheService)
	if err != nil {
		return err
	}
	a.products = products

	recorder := automation.NewRecorder(factory.AutomationLogStore(), a.logger)

	var notionClient *notion.Client
	if cfg.Clients.NotionAPIKey != "" {
		notionClient = notion.NewClient(cfg.Clients.NotionAPIKey, cfg.Clients.NotionCRMDatabase)
	}

	dispatcher, err := fulfillmentDispatcher(factory, recorder, a.logger, notionClient)
	if err != nil {
		return err
	}
	a.dispatcher = dispatcher

	service, err := reconcile.NewService(reconcile.Config{
		Orders:        factory.OrderStore(),
		Subscriptions: factory.SubscriptionStore(),
		Products:      products,
		Dispatcher:    dispatcher,
		Recorder:      recorder,
		Logger:        a.logger,
	})
	if err != nil {
		return err
	}
	router := webhooks.NewRouter()
	if err := service.RegisterRoutes(router); err != nil {
		return err
	}

	ledger := factory.WebhookDeliveryStore()
	stripeSecret := cfg.GatewaySecret(core.GatewayStripe)
	stripeProcessor := webhooks.NewProcessor(
		webhooks.SecretGatedVerifier{
			Secret:     stripeSecret,
			Production: cfg.IsProduction(),
			Inner:      stripe.NewSignatureVerifier(stripeSecret),
		},
		stripe.NewParser(),
		ledger,
		router,
	)
	stripeProcessor.Logger = a.logger

	paypalSecret := cfg.GatewaySecret(core.GatewayPayPal)
	paypalProcessor := webhooks.NewProcessor(
		webhooks.SecretGatedVerifier{
			Secret:     paypalSecret,
			Production: cfg.IsProduction(),
			Inner:      paypal.NewSignatureVerifier(paypalSecret),
		},
		paypal.NewParser(),
		ledger,
		router,
	)
	paypalProcessor.Logger = a.logger

	var crm automation.CRMWriter
	if notionClient != nil {
		crm = notionCRM{client: notionClient}
	}
	var issues automation.IssueCreator
	if cfg.Clients.LinearAPIKey != "" {
		issues = linear.NewClient(cfg.Clients.LinearAPIKey, cfg.Clients.LinearTeamID)
	}
	intake, err := automation.NewLeadIntake(automation.LeadIntakeConfig{
		Leads:    factory.LeadStore(),
		CRM:      crm,
		Issues:   issues,
		Recorder: recorder,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	a.intake = intake

	a.kpi = automation.NewKpiRecompute(
		factory.LeadStore(),
		factory.OrderStore(),
		factory.KpiStore(),
	)

	if cfg.Clients.OpenAIAPIKey != "" {
		briefing, err := a.newBriefing(recorder)
		if err != nil {
			return err
		}
		a.briefing = briefing
	}

	a.scheduler = automation.NewScheduler(a.logger)
	if a.briefing != nil {
		if err := a.scheduler.Schedule(cfg.Briefing.Schedule, "daily briefing", a.briefing.Run); err != nil {
			return err
		}
	}

	server, err := api.NewServer(api.Config{
		Stripe: stripeProcessor,
		PayPal: paypalProcessor,
		Health: func(ctx context.Context) error {
			return factory.DB().PingContext(ctx)
		},
		Orders:     factory.OrderStore(),
		Products:   products,
		Dispatcher: dispatcher,
		Intake:     intake,
		Kpi:        a.kpi,
		KpiStore:   factory.KpiStore(),
		Logs:       factory.AutomationLogStore(),
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}
	a.server = server
	return nil
}

// newBriefing assembles the content pipeline from whichever SaaS clients
// have credentials. Only the copy writer is load bearing; missing clients
// degrade the corresponding pipeline stage.
func (a *app) newBriefing(recorder *automation.Recorder) (*automation.Briefing, error) {
	clients := a.cfg.Clients

	briefingCfg := automation.BriefingConfig{
		Writer:        openai.NewClient(clients.OpenAIAPIKey),
		Assets:        a.factory.ContentAssetStore(),
		Subscriptions: a.factory.SubscriptionStore(),
		Kpi:           a.kpi,
		Recorder:      recorder,
		Logger:        a.logger,
		Sources:       a.cfg.Briefing.Sources,
	}
	if clients.PolygonAPIKey != "" {
		briefingCfg.Market = polygon.NewClient(clients.PolygonAPIKey)
	}
	if clients.FirecrawlAPIKey != "" {
		briefingCfg.Scraper = firecrawl.NewClient(clients.FirecrawlAPIKey)
	}
	if clients.ElevenLabsAPIKey != "" {
		briefingCfg.Audio = elevenlabs.NewClient(clients.ElevenLabsAPIKey)
	}
	if clients.InVideoAPIKey != "" {
		briefingCfg.Video = invideo.NewClient(clients.InVideoAPIKey)
	}
	if clients.WebflowAPIKey != "" {
		briefingCfg.Publisher = webflow.NewClient(clients.WebflowAPIKey, clients.WebflowCollectionID)
	}
	return automation.NewBriefing(briefingCfg)
}

func (a *app) Close() error {
	if a == nil {
		return nil
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}
