package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"brigade/internal/actuate"
	"brigade/internal/agents"
	"brigade/internal/api"
	"brigade/internal/config"
	"brigade/internal/database"
	"brigade/internal/decompose"
	"brigade/internal/evaluation"
	"brigade/internal/kitchen"
	"brigade/internal/monitoring"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
	orderText   = flag.String("order", "", "Run a single order to completion and exit")
	logFile     = flag.String("log-file", "action_log.json", "Action log output path for -order runs")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := initializeLLM(cfg)
	runner, closer, err := buildRunner(cfg, model)
	if err != nil {
		log.Fatalf("Failed to build kitchen pipeline: %v", err)
	}
	if closer != nil {
		defer closer()
	}

	if *orderText != "" {
		runOnce(ctx, runner, *orderText, *logFile)
		return
	}

	store, err := database.Open(cfg.Database.Driver, cfg.Database.Source)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	metricsCollector := evaluation.NewMetricsCollector()
	runner.Metrics = metricsCollector

	secret := ""
	if cfg.Auth.Enabled {
		secret = cfg.Auth.Secret
	}
	kitchenAPI := api.NewKitchenAPI(runner, store, monitoring.NewMonitor(), secret)

	go startMetricsServer(cfg.Server.MetricsPort, metricsCollector)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: kitchenAPI.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}

		cancel()
	}()

	log.Printf("Starting API server on port %d", cfg.Server.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

// initializeLLM returns nil when no API key is configured; the pipeline
// then runs fully deterministic.
func initializeLLM(cfg *config.Config) llms.LLM {
	key := cfg.LLM.OpenAIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		log.Println("No OpenAI key configured, running deterministic pipeline")
		return nil
	}

	model, err := openai.New(
		openai.WithModel(cfg.LLM.Model),
		openai.WithToken(key),
	)
	if err != nil {
		log.Printf("Failed to initialize OpenAI client, running deterministic pipeline: %v", err)
		return nil
	}
	return model
}

// buildRunner assembles the order pipeline from the configuration. The
// returned closer shuts the robot gateway down when one is in use.
func buildRunner(cfg *config.Config, model llms.LLM) (*api.OrderRunner, func() error, error) {
	layout := cfg.Kitchen.Stations

	var decomposer decompose.Decomposer = decompose.NewRecipeBook(layout)
	var allocator kitchen.Allocator = kitchen.GreedyAllocator{}
	if model != nil {
		decomposer = decompose.NewLLMDecomposer(model, layout)
		allocator = agents.NewLLMAllocator(model)
	}

	var actuator kitchen.Actuator
	var closer func() error
	if cfg.Kitchen.RobotBridgeURL != "" {
		gateway, err := actuate.NewGateway(cfg.Kitchen.RobotBridgeURL)
		if err != nil {
			return nil, nil, err
		}
		actuator = gateway
		closer = gateway.Close
	} else {
		actuator = actuate.NewSimulator(time.Duration(cfg.Kitchen.SimulatorLatency) * time.Millisecond)
	}

	return &api.OrderRunner{
		Decomposer:       decomposer,
		Allocator:        allocator,
		Actuator:         actuator,
		Roster:           cfg.Roster(),
		StepBudget:       cfg.Kitchen.StepBudget,
		StallWindow:      cfg.Kitchen.StallWindow,
		ActuationTimeout: time.Duration(cfg.Kitchen.ActuationTimeout) * time.Second,
	}, closer, nil
}

// runOnce drives a single order to a terminal state and writes its
// action log to disk
func runOnce(ctx context.Context, runner *api.OrderRunner, order, path string) {
	summary, err := runner.Run(ctx, order)
	if err != nil {
		log.Fatalf("Order failed: %v", err)
	}

	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create action log file: %v", err)
	}
	defer file.Close()
	if err := summary.Result.Log.WriteJSON(file); err != nil {
		log.Fatalf("Failed to write action log: %v", err)
	}

	log.Printf("Run %s finished: status=%s steps=%d completed=%d/%d log=%s",
		summary.RunID, summary.Result.Status, summary.Result.Steps,
		summary.Result.Completed, summary.Result.TotalTasks, path)
	if summary.Result.Status != kitchen.StatusCompleted {
		os.Exit(1)
	}
}

func startMetricsServer(port int, collector *evaluation.MetricsCollector) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(collector.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
