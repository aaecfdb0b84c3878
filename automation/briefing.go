package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/omnirevenue/agent/clients/polygon"
	"github.com/omnirevenue/agent/core"
)

const (
	// DefaultBriefingSKU is the subscription product gated by the briefing.
	DefaultBriefingSKU = "DAILYBRIEF-MONTHLY"

	// maxScrapedSources bounds how many trending sources are scraped per run.
	maxScrapedSources = 3

	articleMaxTokens = 1000
	emailMaxTokens   = 800
)

type MarketDataSource interface {
	MarketSnapshot(ctx context.Context) (polygon.Snapshot, error)
}

type SourceScraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

type CopyWriter interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

type AudioSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type VideoGenerator interface {
	GenerateClip(ctx context.Context, script string) (string, error)
}

type PostPublisher interface {
	PublishPost(ctx context.Context, title, article string) (string, error)
}

// Briefing is the daily content pipeline: market data and scraped sources
// go through the LLM into an article, then audio, video, publication, and
// the day's KPI refresh. Content generation and the asset save are load
// bearing; every other stage degrades the run to partial instead of
// failing it.
type Briefing struct {
	market        MarketDataSource
	scraper       SourceScraper
	writer        CopyWriter
	audio         AudioSynthesizer
	video         VideoGenerator
	publisher     PostPublisher
	assets        core.ContentAssetStore
	subscriptions core.SubscriptionStore
	kpi           *KpiRecompute
	recorder      *Recorder
	logger        core.Logger

	sources     []string
	briefingSKU string
	audioDir    string
	now         func() time.Time
}

type BriefingConfig struct {
	Market        MarketDataSource
	Scraper       SourceScraper
	Writer        CopyWriter
	Audio         AudioSynthesizer
	Video         VideoGenerator
	Publisher     PostPublisher
	Assets        core.ContentAssetStore
	Subscriptions core.SubscriptionStore
	Kpi           *KpiRecompute
	Recorder      *Recorder
	Logger        core.Logger

	Sources     []string
	BriefingSKU string
	AudioDir    string
}

func NewBriefing(cfg BriefingConfig) (*Briefing, error) {
	if cfg.Writer == nil {
		return nil, fmt.Errorf("automation: briefing requires a copy writer")
	}
	if cfg.Assets == nil {
		return nil, fmt.Errorf("automation: briefing requires a content asset store")
	}
	briefingSKU := strings.TrimSpace(cfg.BriefingSKU)
	if briefingSKU == "" {
		briefingSKU = DefaultBriefingSKU
	}
	audioDir := strings.TrimSpace(cfg.AudioDir)
	if audioDir == "" {
		audioDir = os.TempDir()
	}
	return &Briefing{
		market:        cfg.Market,
		scraper:       cfg.Scraper,
		writer:        cfg.Writer,
		audio:         cfg.Audio,
		video:         cfg.Video,
		publisher:     cfg.Publisher,
		assets:        cfg.Assets,
		subscriptions: cfg.Subscriptions,
		kpi:           cfg.Kpi,
		recorder:      cfg.Recorder,
		logger:        cfg.Logger,
		sources:       cfg.Sources,
		briefingSKU:   briefingSKU,
		audioDir:      audioDir,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// WithClock overrides the briefing clock. Test hook.
func (b *Briefing) WithClock(now func() time.Time) *Briefing {
	if b != nil && now != nil {
		b.now = now
	}
	return b
}

// Run executes a full briefing. A nil return covers both completed and
// partial outcomes; the automation log carries which one it was.
func (b *Briefing) Run(ctx context.Context) error {
	if b == nil || b.writer == nil || b.assets == nil {
		return fmt.Errorf("automation: briefing is not configured")
	}
	now := b.now()
	run := b.recorder.Begin(AutomationBriefing, "Daily Briefing Generation", map[string]any{"scheduled": true})

	var degraded []string
	note := func(stage string, err error) {
		degraded = append(degraded, fmt.Sprintf("%s: %v", stage, err))
		b.warn(ctx, "briefing stage degraded", map[string]any{"stage": stage, "error": err.Error()})
	}

	var snapshot polygon.Snapshot
	if b.market != nil {
		fetched, err := b.market.MarketSnapshot(ctx)
		if err != nil {
			note("market data", err)
		} else {
			snapshot = fetched
		}
	}

	var scraped []string
	if b.scraper != nil {
		sources := b.sources
		if len(sources) > maxScrapedSources {
			sources = sources[:maxScrapedSources]
		}
		for _, source := range sources {
			excerpt, err := b.scraper.Scrape(ctx, source)
			if err != nil {
				note("scrape "+source, err)
				continue
			}
			scraped = append(scraped, fmt.Sprintf("Source: %s\n%s", source, excerpt))
		}
	}

	article, err := b.writer.Complete(ctx, articleSystemPrompt, articleUserPrompt(snapshot, scraped), articleMaxTokens)
	if err != nil {
		run.Fail(ctx, err)
		return fmt.Errorf("automation: generate briefing article: %w", err)
	}

	email, err := b.writer.Complete(ctx, emailSystemPrompt, emailUserPrompt(article), emailMaxTokens)
	if err != nil {
		note("email copy", err)
	}

	headline := fmt.Sprintf("Daily Briefing - %s", now.Format("January 2, 2006"))

	var audioURL string
	if b.audio != nil {
		audio, err := b.audio.Synthesize(ctx, article)
		if err != nil {
			note("audio", err)
		} else {
			path := filepath.Join(b.audioDir, fmt.Sprintf("briefing_%s.mp3", now.Format("20060102")))
			if err := os.WriteFile(path, audio, 0o644); err != nil {
				note("audio write", err)
			} else {
				audioURL = path
			}
		}
	}

	var videoURL string
	if b.video != nil {
		url, err := b.video.GenerateClip(ctx, article)
		if err != nil {
			note("video", err)
		} else {
			videoURL = url
		}
	}

	socialPosts := []string{}
	if email != "" {
		socialPosts = append(socialPosts, email)
	}
	asset, err := b.assets.Save(ctx, core.ContentAsset{
		BriefingFor: now,
		Headline:    headline,
		Article:     article,
		SocialPosts: socialPosts,
		AudioURL:    audioURL,
		VideoURL:    videoURL,
	})
	if err != nil {
		run.Fail(ctx, err)
		return fmt.Errorf("automation: save briefing asset: %w", err)
	}

	if b.publisher != nil {
		if _, err := b.publisher.PublishPost(ctx, headline, article); err != nil {
			note("publish", err)
		} else if err := b.assets.MarkPublished(ctx, asset.ID); err != nil {
			note("mark published", err)
		}
	}

	subscriberCount := 0
	if b.subscriptions != nil {
		subscribers, err := b.subscriptions.ListActive(ctx, b.briefingSKU)
		if err != nil {
			note("subscriber list", err)
		} else {
			subscriberCount = len(subscribers)
			b.info(ctx, "briefing audience resolved", map[string]any{
				"sku":         b.briefingSKU,
				"subscribers": subscriberCount,
			})
		}
	}

	if b.kpi != nil {
		if _, err := b.kpi.RecomputeToday(ctx); err != nil {
			note("kpi recompute", err)
		}
	}

	executionData := map[string]any{
		"asset_id":           asset.ID,
		"audio_url":          audioURL,
		"video_url":          videoURL,
		"market_data_points": len(snapshot.Gainers) + len(snapshot.Losers),
		"trending_sources":   len(scraped),
		"subscribers":        subscriberCount,
	}
	if len(degraded) > 0 {
		run.Partial(ctx, executionData, fmt.Errorf("%s", strings.Join(degraded, "; ")))
		return nil
	}
	run.Complete(ctx, executionData)
	return nil
}

const articleSystemPrompt = "You are a financial analyst and content creator. Generate a daily briefing that synthesizes market data and trending topics into a 5-point thesis with contrarian insights. Write in a professional yet engaging tone."

const emailSystemPrompt = "You are an email copywriter. Convert this briefing into an engaging email with a compelling subject line and clear CTA."

func articleUserPrompt(snapshot polygon.Snapshot, scraped []string) string {
	var b strings.Builder
	b.WriteString("Market Data:\n")
	b.WriteString("Top Gainers:\n")
	for _, ticker := range snapshot.Gainers {
		fmt.Fprintf(&b, "- %s (%.2f%%)\n", ticker.Symbol, ticker.ChangePct)
	}
	b.WriteString("Top Losers:\n")
	for _, ticker := range snapshot.Losers {
		fmt.Fprintf(&b, "- %s (%.2f%%)\n", ticker.Symbol, ticker.ChangePct)
	}
	b.WriteString("\nTrending Topics:\n")
	for _, excerpt := range scraped {
		b.WriteString(excerpt)
		b.WriteString("\n\n")
	}
	b.WriteString("Structure:\n1. Market Overview (2-3 sentences)\n2. Key Movers Analysis (3-4 sentences)\n3. Trending Topics Synthesis (3-4 sentences)\n4. Contrarian Take (2-3 sentences)\n5. Action Items (3 bullet points)")
	return b.String()
}

func emailUserPrompt(article string) string {
	return fmt.Sprintf("Convert this briefing into an email:\n\n%s\n\nInclude:\n- Subject line\n- Preheader\n- Body with HTML formatting\n- CTA to upgrade/subscribe", article)
}

func (b *Briefing) info(ctx context.Context, message string, fields map[string]any) {
	b.log(ctx, message, fields, false)
}

func (b *Briefing) warn(ctx context.Context, message string, fields map[string]any) {
	b.log(ctx, message, fields, true)
}

func (b *Briefing) log(ctx context.Context, message string, fields map[string]any, warn bool) {
	if b == nil || b.logger == nil {
		return
	}
	logger := b.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	if warn {
		logger.Warn(message)
		return
	}
	logger.Info(message)
}
