package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"brigade/internal/database"
	"brigade/internal/evaluation"
	"brigade/internal/kitchen"
	"brigade/internal/monitoring"
)

// KitchenAPI represents the main API handler for the kitchen
type KitchenAPI struct {
	Router    *gin.Engine
	Runner    *OrderRunner
	Store     *database.Store
	Monitor   *monitoring.Monitor
	Evaluator *evaluation.Evaluator
	Hub       *Hub

	authSecret string
}

// NewKitchenAPI creates a new kitchen API instance. An empty secret
// leaves the API open; otherwise every /api/v1 route requires a valid
// bearer token.
func NewKitchenAPI(runner *OrderRunner, store *database.Store, monitor *monitoring.Monitor, authSecret string) *KitchenAPI {
	api := &KitchenAPI{
		Router:     gin.Default(),
		Runner:     runner,
		Store:      store,
		Monitor:    monitor,
		Evaluator:  evaluation.NewEvaluator(),
		Hub:        NewHub(),
		authSecret: authSecret,
	}

	runner.Store = store
	runner.Monitor = monitor
	runner.OnStep = func(runID string, step int, records []kitchen.ActionRecord) {
		api.Hub.Broadcast(StepEvent{RunID: runID, Step: step, Records: records})
	}

	api.setupRoutes()
	return api
}

// setupRoutes configures all API endpoints
func (k *KitchenAPI) setupRoutes() {
	// Health check
	k.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Brigade API is running"})
	})

	// Live step stream
	k.Router.GET("/ws", k.Hub.Handle)

	v1 := k.Router.Group("/api/v1")
	if k.authSecret != "" {
		v1.Use(AuthMiddleware(k.authSecret))
	}
	{
		// Order management
		v1.POST("/orders", k.CreateOrder)

		// Run history
		v1.GET("/runs", k.ListRuns)
		v1.GET("/runs/:id", k.GetRun)
		v1.GET("/runs/:id/log", k.GetRunLog)

		// Kitchen operations
		v1.GET("/kitchen/status", k.GetKitchenStatus)

		// Benchmarks
		v1.GET("/scenarios", k.ListScenarios)
		v1.POST("/evaluations", k.RunEvaluation)
	}
}

// CreateOrder accepts a free-text order and runs it to a terminal state
func (k *KitchenAPI) CreateOrder(c *gin.Context) {
	var req struct {
		Order string `json:"order" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := k.Runner.Run(c.Request.Context(), req.Order)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// ListRuns returns recent run summaries, newest first
func (k *KitchenAPI) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := k.Store.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

// GetRun returns one persisted run summary
func (k *KitchenAPI) GetRun(c *gin.Context) {
	run, err := k.Store.GetRun(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetRunLog returns the per-agent action log of a run
func (k *KitchenAPI) GetRunLog(c *gin.Context) {
	runID := c.Param("id")
	if _, err := k.Store.GetRun(runID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	log, err := k.Store.GetActionLog(runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, log)
}

// GetKitchenStatus returns the live monitor counters
func (k *KitchenAPI) GetKitchenStatus(c *gin.Context) {
	c.JSON(http.StatusOK, k.Monitor.GetMetrics())
}

// ListScenarios returns the built-in benchmark scenarios
func (k *KitchenAPI) ListScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, k.Evaluator.Scenarios())
}

// RunEvaluation runs one benchmark scenario and returns its metrics
func (k *KitchenAPI) RunEvaluation(c *gin.Context) {
	var req struct {
		Scenario string `json:"scenario" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !k.Evaluator.HasScenario(req.Scenario) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid scenario: " + req.Scenario})
		return
	}

	result, err := k.Evaluator.Evaluate(c.Request.Context(), req.Scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
