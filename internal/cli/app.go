package cli

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"apflow/internal/config"
	"apflow/internal/confidence"
	"apflow/internal/domain"
	"apflow/internal/extractor/remote"
	"apflow/internal/match"
	"apflow/internal/port"
	"apflow/internal/progress"
	"apflow/internal/repository/cache"
	"apflow/internal/repository/postgres"
	"apflow/internal/service"
	s3storage "apflow/internal/storage/s3"
	"apflow/internal/workflow"
)

// app is the composition root shared by every subcommand. Each command
// builds one, uses the services it needs, and closes it.
type app struct {
	cfg *config.Config
	db  *sqlx.DB

	docs    port.DocumentRepository
	tracker *progress.Tracker

	extraction *service.ExtractionService
	review     *service.ReviewService
	matcher    *service.MatchService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	docRepo := postgres.NewDocumentRepo(db)
	auditRepo := postgres.NewAuditRepo(db)
	refRepo := cache.NewReferenceCache(
		postgres.NewReferenceRepo(db),
		time.Duration(cfg.Match.CacheTTLSecs)*time.Second,
	)

	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	var primary, fallback port.FieldExtractor
	primary = remote.NewExtractor("primary", cfg.Queue.PrimaryURL)
	if cfg.Queue.FallbackURL != "" {
		fallback = remote.NewExtractor("fallback", cfg.Queue.FallbackURL)
	}

	machine := workflow.NewStateMachine(docRepo, auditRepo)
	tracker := progress.NewTracker()
	classifier := confidence.NewClassifier(confidence.Thresholds{
		High:   cfg.Confidence.High,
		Medium: cfg.Confidence.Medium,
	}, nil)

	tolerance, err := domain.ParseAmount(cfg.LineItem.Tolerance)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid line item tolerance %q: %w", cfg.LineItem.Tolerance, err)
	}

	extractSvc := service.NewExtractionService(
		docRepo, s3Client, primary, fallback, machine, tracker, classifier,
		service.ExtractionConfig{
			Bucket:      cfg.S3.Bucket,
			Tolerance:   tolerance,
			MaxAttempts: cfg.Queue.MaxRetries,
		},
	)
	reviewSvc := service.NewReviewService(docRepo, auditRepo, machine, classifier)
	matchSvc := service.NewMatchService(docRepo, refRepo, match.NewEngine(match.Config{
		Weights: match.Weights{
			Vendor:    cfg.Match.VendorWeight,
			Amount:    cfg.Match.AmountWeight,
			Date:      cfg.Match.DateWeight,
			Reference: cfg.Match.ReferenceWeight,
		},
		AcceptThreshold: cfg.Match.AcceptThreshold,
		AmountBandPct:   cfg.Match.AmountBandPct,
		DateWindowDays:  cfg.Match.DateWindowDays,
	}))

	return &app{
		cfg:        cfg,
		db:         db,
		docs:       docRepo,
		tracker:    tracker,
		extraction: extractSvc,
		review:     reviewSvc,
		matcher:    matchSvc,
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}
