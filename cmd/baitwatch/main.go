package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baitwatch/baitwatch/internal/collector"
	"github.com/baitwatch/baitwatch/internal/config"
	"github.com/baitwatch/baitwatch/internal/detect"
	"github.com/baitwatch/baitwatch/internal/logger"
	"github.com/baitwatch/baitwatch/internal/models"
	"github.com/baitwatch/baitwatch/internal/notify"
	"github.com/baitwatch/baitwatch/internal/scheduler"
	"github.com/baitwatch/baitwatch/internal/semantic"
	"github.com/baitwatch/baitwatch/internal/shopfront"
	"github.com/baitwatch/baitwatch/internal/snapshot"
	"github.com/baitwatch/baitwatch/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	scenario   = flag.String("scenario", "", "Run a demo scenario and exit: normal, price_change, description_change, wording_variation, all")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := newSnapshotStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize snapshot store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close snapshot store: %v", err)
		}
	}()

	shop := shopfront.NewServer()
	shopServer := &http.Server{
		Addr:    cfg.Storefront.ListenAddr,
		Handler: shop.Router(),
	}
	go func() {
		logger.Info("Storefront listening on %s", cfg.Storefront.ListenAddr)
		if err := shopServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Storefront server failed: %v", err)
		}
	}()

	shopClient := collector.NewShopClient(
		cfg.Storefront.BaseURL,
		cfg.Storefront.Timeout,
		cfg.Storefront.MaxRetries,
		cfg.Storefront.RetryDelayBase,
	)

	var judge *semantic.HTTPJudge
	if cfg.Detector.UseSemanticJudge && cfg.Judge.Endpoint != "" {
		judge = semantic.NewHTTPJudge(cfg.Judge.Endpoint, cfg.Judge.Timeout)
		logger.Info("Semantic judge enabled: %s", cfg.Judge.Endpoint)
	} else {
		logger.Debug("Semantic judge disabled, lexical comparison only")
	}

	// A SQLite-backed store doubles as the detection audit log.
	var audit detect.Audit
	if a, ok := store.(detect.Audit); ok {
		audit = a
	}

	detectorCfg := detect.Config{
		PriceChangeThreshold:           cfg.Detector.PriceChangeThreshold,
		DescriptionSimilarityThreshold: cfg.Detector.DescriptionSimilarityThreshold,
		UseSemanticJudge:               cfg.Detector.UseSemanticJudge,
		DeceptionThreshold:             cfg.Detector.DeceptionThreshold,
	}
	var detector *detect.Detector
	if judge != nil {
		detector = detect.New(store, shopClient, judge, audit, detectorCfg)
	} else {
		detector = detect.New(store, shopClient, nil, audit, detectorCfg)
	}

	notifier := notify.New()
	registerDefaultHandlers(notifier)

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier.RegisterHandler(models.SeverityWarning, telegramClient.Handler())
		notifier.RegisterHandler(models.SeverityError, telegramClient.Handler())
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	sched := scheduler.New(detector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	if *scenario != "" {
		runScenarios(ctx, *scenario, cfg, shop, shopClient, store, detector, notifier, sched)
	} else {
		logger.Info("Running in service mode; storefront at %s", cfg.Storefront.BaseURL)
		<-ctx.Done()
	}

	sched.StopAll()
	if removed := store.SweepExpired(cfg.Snapshot.MaxAge); removed > 0 {
		logger.Info("Swept %d expired snapshots on shutdown", removed)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := shopServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Storefront shutdown failed: %v", err)
	}
	logger.Info("Service stopped")
}

func newSnapshotStore(cfg *config.Config) (snapshot.Store, error) {
	opts := snapshot.Options{PreserveFirstView: cfg.Snapshot.PreserveFirstView}
	if cfg.Snapshot.DBPath == "" {
		logger.Info("Using in-memory snapshot store")
		return snapshot.NewMemoryStore(opts), nil
	}
	logger.Info("Using SQLite snapshot store at %s", cfg.Snapshot.DBPath)
	return snapshot.NewSQLiteStore(cfg.Snapshot.DBPath, opts)
}

func registerDefaultHandlers(notifier *notify.Notifier) {
	for _, severity := range []models.Severity{models.SeverityInfo, models.SeverityWarning, models.SeverityError} {
		notifier.RegisterHandler(severity, notify.ConsoleHandler(os.Stdout))
		notifier.RegisterHandler(severity, notify.LogHandler)
	}
	notifier.RegisterHandler(models.SeverityWarning, notify.AgentResponseHandler)
	notifier.RegisterHandler(models.SeverityError, notify.AgentResponseHandler)
}

// demoScenario seeds a listing, then mutates it between the simulated view
// and the simulated checkout.
type demoScenario struct {
	name     string
	original models.ProductRecord
	mutated  *models.ProductRecord // nil = listing unchanged
	// expectFlagged is printed with the outcome so a demo run reads as
	// pass/fail at a glance.
	expectFlagged bool
}

func demoScenarios() []demoScenario {
	base := func(productID, description string) models.ProductRecord {
		return models.ProductRecord{
			ProductID:   productID,
			Price:       100000,
			Description: description,
			Attributes:  map[string]any{"brand": "BrandX", "category": "electronics"},
		}
	}

	priceMutation := base("PROD_PRICE_CHANGE", "Premium smartphone with a genuine 1-year warranty")
	priceMutation.Price = 120000

	descMutation := base("PROD_DESC_CHANGE", "Premium smartphone (no warranty)")
	wordingMutation := base("PROD_WORDING_VAR", "Premium smartphone with a 1-year genuine warranty and technical support service")

	return []demoScenario{
		{
			name:     "normal",
			original: base("PROD_NORMAL", "Premium smartphone with a genuine 1-year warranty"),
		},
		{
			name:          "price_change",
			original:      base("PROD_PRICE_CHANGE", "Premium smartphone with a genuine 1-year warranty"),
			mutated:       &priceMutation,
			expectFlagged: true,
		},
		{
			name:          "description_change",
			original:      base("PROD_DESC_CHANGE", "Premium smartphone with a genuine 1-year warranty and free repair service"),
			mutated:       &descMutation,
			expectFlagged: true,
		},
		{
			// Reworded marketing copy with the same claims. Without a
			// semantic judge the token-set comparator may still flag it;
			// a judge clears it.
			name:          "wording_variation",
			original:      base("PROD_WORDING_VAR", "Premium smartphone with a genuine 1-year warranty and after-sales support"),
			mutated:       &wordingMutation,
			expectFlagged: false,
		},
	}
}

func runScenarios(
	ctx context.Context,
	selection string,
	cfg *config.Config,
	shop *shopfront.Server,
	shopClient *collector.ShopClient,
	store snapshot.Store,
	detector *detect.Detector,
	notifier *notify.Notifier,
	sched *scheduler.Scheduler,
) {
	var selected []demoScenario
	for _, sc := range demoScenarios() {
		if selection == "all" || selection == sc.name {
			selected = append(selected, sc)
		}
	}
	if len(selected) == 0 {
		logger.Fatal("Unknown scenario %q", selection)
	}

	for _, sc := range selected {
		if ctx.Err() != nil {
			return
		}
		runScenario(ctx, cfg, sc, shop, shopClient, store, detector, notifier, sched)
	}
}

func runScenario(
	ctx context.Context,
	cfg *config.Config,
	sc demoScenario,
	shop *shopfront.Server,
	shopClient *collector.ShopClient,
	store snapshot.Store,
	detector *detect.Detector,
	notifier *notify.Notifier,
	sched *scheduler.Scheduler,
) {
	sessionID := "sim_" + time.Now().Format("20060102150405.000")
	logger.Info("Scenario %s starting (session %s)", sc.name, sessionID)

	if err := shop.SetProduct(sc.original); err != nil {
		logger.Error("Scenario %s: failed to seed listing: %v", sc.name, err)
		return
	}

	// The agent views the product: collect through the same API the later
	// verification will use, and snapshot what it saw.
	viewed, err := shopClient.CollectCurrent(ctx, sc.original.ProductID)
	if err != nil || viewed == nil {
		logger.Error("Scenario %s: failed to collect initial view: %v", sc.name, err)
		return
	}
	if err := store.Put(sessionID, viewed.ProductID, *viewed, snapshot.PutOptions{
		SourceURL: shopClient.ProductURL(viewed.ProductID),
		AgentID:   "demo-agent",
	}); err != nil {
		logger.Error("Scenario %s: failed to store snapshot: %v", sc.name, err)
		return
	}

	if cfg.Scheduler.AutoVerifyEnabled {
		sched.Start(sessionID, []string{viewed.ProductID}, cfg.Scheduler.AutoVerifyInterval)
		defer sched.Stop(sessionID)
	}

	// The seller mutates the listing while the agent deliberates.
	if sc.mutated != nil {
		time.Sleep(time.Second)
		if err := shop.SetProduct(*sc.mutated); err != nil {
			logger.Error("Scenario %s: failed to mutate listing: %v", sc.name, err)
			return
		}
	}

	// Add-to-cart triggers verification.
	result := detector.Verify(ctx, sessionID, sc.original.ProductID)
	if result == nil {
		logger.Error("Scenario %s: verification aborted", sc.name)
		return
	}
	if msg := detector.CreateNotification(result); msg != nil {
		notifier.Notify(msg)
	}

	printScenarioResult(sc, result)
}

func printScenarioResult(sc demoScenario, result *models.DetectionResult) {
	status := "OK"
	if result.IsFlagged != sc.expectFlagged {
		status = "UNEXPECTED"
	}
	fmt.Printf("\n=== Scenario %s: flagged=%v (expected %v) [%s]\n", sc.name, result.IsFlagged, sc.expectFlagged, status)
	if result.IsFlagged {
		for _, field := range result.ChangedFields() {
			fmt.Printf("    %s\n", result.Changes[field].Summary())
		}
	}
	if result.Semantic != nil {
		fmt.Printf("    deception score: %.1f/10\n", result.Semantic.DeceptionScore)
	}
	if result.Degraded {
		fmt.Println("    (semantic judge unavailable, lexical fallback)")
	}
}
