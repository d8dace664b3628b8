package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"pricetrawl/config"
	"pricetrawl/helpers"
	"pricetrawl/internal/fetch"
	"pricetrawl/internal/scrape"
	"pricetrawl/logger"
	"pricetrawl/pkg/errors"
	"pricetrawl/services/cache"
	"pricetrawl/services/export"
	"pricetrawl/services/mailer"
)

// Scheduler runs the price report on a cron schedule
type Scheduler struct {
	cron *cron.Cron
	spec string
	log  *logger.Logger
}

// ReportJob scrapes the configured URLs with pagination and emails the
// resulting CSV and XLSX artifacts.
type ReportJob struct {
	urls         []string
	rules        scrape.Rules
	maxPages     int
	fetchTimeout time.Duration
	mailer       *mailer.Mailer
	cooldown     *cache.Cooldown
	log          *logger.Logger
}

// New validates the report configuration and creates a scheduler for it
func New(cfg *config.Config, cooldown *cache.Cooldown) (*Scheduler, error) {
	if !cfg.SMTP.Complete() {
		return nil, errors.NewConfig("smtp configuration incomplete; report emails cannot be sent", nil)
	}

	urls := helpers.SplitLines(cfg.ReportURLs)
	if len(urls) == 0 {
		return nil, errors.NewConfig("REPORT_URLS is empty; nothing to report on", nil)
	}

	job := &ReportJob{
		urls:         urls,
		rules:        scrape.Rules{PercentOff: cfg.ReportPercentOff, AbsoluteOff: cfg.ReportAbsoluteOff},
		maxPages:     cfg.ReportMaxPages,
		fetchTimeout: cfg.FetchTimeout,
		mailer:       mailer.New(cfg.SMTP),
		cooldown:     cooldown,
		log:          logger.ForScheduler(),
	}

	c := cron.New()
	if _, err := c.AddJob(cfg.CronSpec, job); err != nil {
		return nil, errors.NewConfig("invalid CRON expression", err)
	}

	return &Scheduler{
		cron: c,
		spec: cfg.CronSpec,
		log:  logger.ForScheduler(),
	}, nil
}

// Start begins running the report job on its schedule
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Str("cron", s.spec).Msg("Report scheduler enabled")
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Report scheduler stopped")
}

// Run executes one report cycle
func (j *ReportJob) Run() {
	start := time.Now()

	client := fetch.New(fetch.Options{
		Retries:   3,
		Timeout:   j.fetchTimeout,
		VerifySSL: true,
		Cooldown:  j.cooldown,
	})
	scraper := scrape.New(client, scrape.Config{
		Rules:            j.rules,
		FollowPagination: true,
		MaxPages:         j.maxPages,
		Delay:            400 * time.Millisecond,
	})

	items := scraper.ScrapeBatch(context.Background(), j.urls)

	csvData, err := export.ItemsCSV(items)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to render report CSV")
		return
	}
	xlsxData, err := export.ItemsWorkbook(items)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to render report workbook")
		return
	}

	attachments := []mailer.Attachment{
		{Filename: "report.csv", Data: csvData},
		{Filename: "report.xlsx", Data: xlsxData},
	}
	if err := j.mailer.Send(context.Background(), "Scheduled price report", "Attached latest scrape.", attachments); err != nil {
		j.log.Error().Err(err).Msg("Failed to send report email")
		return
	}

	j.log.Info().
		Int("urls", len(j.urls)).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Report cycle finished")
}
