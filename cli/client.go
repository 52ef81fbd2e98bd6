package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient handles API requests to the Brigade API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	Token      string
	UseMock    bool
}

// NewApiClient creates a new API client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("BRIGADE_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
		BaseURL: baseURL,
		Token:   os.Getenv("BRIGADE_API_TOKEN"),
		UseMock: false, // Default to trying the real server first
	}

	// Verify connectivity - if server is not available, use mock data
	if !client.ping() {
		fmt.Printf("Warning: API server at %s is not available. Using mock data.\n", baseURL)
		client.UseMock = true
	}

	return client
}

// ping checks if the API server is available
func (c *ApiClient) ping() bool {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Position is a kitchen grid coordinate
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ActionRecord is one agent's outcome for one step of a run
type ActionRecord struct {
	Step       int                    `json:"step"`
	AgentID    string                 `json:"agentId"`
	ActionType string                 `json:"actionType"`
	Target     string                 `json:"target"`
	Position   Position               `json:"position"`
	Success    bool                   `json:"success"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// ActionLog maps agent ids to their ordered action records
type ActionLog map[string][]ActionRecord

// RunResult is the terminal outcome of a kitchen run
type RunResult struct {
	Status     string `json:"status"`
	Steps      int    `json:"steps"`
	Completed  int    `json:"completed_tasks"`
	TotalTasks int    `json:"total_tasks"`
}

// RunSummary is the server's answer to a placed order
type RunSummary struct {
	RunID  string    `json:"run_id"`
	Order  string    `json:"order"`
	Dish   string    `json:"dish"`
	Result RunResult `json:"result"`
}

// Run is one persisted run summary
type Run struct {
	RunID     string    `json:"RunID"`
	OrderText string    `json:"OrderText"`
	Dish      string    `json:"Dish"`
	Status    string    `json:"Status"`
	Steps     int       `json:"Steps"`
	Completed int       `json:"Completed"`
	StartedAt time.Time `json:"StartedAt"`
}

// Scenario is one built-in benchmark
type Scenario struct {
	ID          string   `json:"ID"`
	Name        string   `json:"Name"`
	Description string   `json:"Description"`
	Orders      []string `json:"Orders"`
	Chefs       int      `json:"Chefs"`
}

// EvaluationResult is the aggregate outcome of one benchmark scenario
type EvaluationResult struct {
	Scenario string             `json:"scenario"`
	Metrics  map[string]float64 `json:"metrics"`
}

func (c *ApiClient) do(method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed (%d): %s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// StartOrder places a free-text order and waits for its terminal state
func (c *ApiClient) StartOrder(order string) (*RunSummary, error) {
	if c.UseMock {
		return c.mockSummary(order), nil
	}

	var summary RunSummary
	payload := map[string]string{"order": order}
	if err := c.do(http.MethodPost, "/api/v1/orders", payload, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListRuns retrieves recent runs, newest first
func (c *ApiClient) ListRuns() ([]Run, error) {
	if c.UseMock {
		return c.mockRuns(), nil
	}

	var runs []Run
	if err := c.do(http.MethodGet, "/api/v1/runs", nil, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetActionLog retrieves the per-agent action log of a run
func (c *ApiClient) GetActionLog(runID string) (ActionLog, error) {
	if c.UseMock {
		return c.mockActionLog(), nil
	}

	var log ActionLog
	if err := c.do(http.MethodGet, "/api/v1/runs/"+runID+"/log", nil, &log); err != nil {
		return nil, err
	}
	return log, nil
}

// KitchenStatus retrieves the live monitor counters
func (c *ApiClient) KitchenStatus() (map[string]interface{}, error) {
	if c.UseMock {
		return map[string]interface{}{
			"runs_total":      3,
			"runs_completed":  2,
			"last_run_status": "completed",
			"uptime_seconds":  412.0,
		}, nil
	}

	var status map[string]interface{}
	if err := c.do(http.MethodGet, "/api/v1/kitchen/status", nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// ListScenarios retrieves the built-in benchmark scenarios
func (c *ApiClient) ListScenarios() ([]Scenario, error) {
	if c.UseMock {
		return []Scenario{
			{ID: "busy_night", Name: "Busy Night", Description: "Three orders back to back with a two-chef brigade.", Chefs: 2},
			{ID: "short_staffed", Name: "Short Staffed", Description: "Two orders with a single chef doing everything.", Chefs: 1},
		}, nil
	}

	var scenarios []Scenario
	if err := c.do(http.MethodGet, "/api/v1/scenarios", nil, &scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

// RunEvaluation runs one benchmark scenario
func (c *ApiClient) RunEvaluation(scenarioID string) (*EvaluationResult, error) {
	if c.UseMock {
		return &EvaluationResult{
			Scenario: scenarioID,
			Metrics: map[string]float64{
				"task_completion": 1.0,
				"run_completion":  1.0,
				"mean_steps":      9.0,
				"wait_share":      0.25,
			},
		}, nil
	}

	var result EvaluationResult
	payload := map[string]string{"scenario": scenarioID}
	if err := c.do(http.MethodPost, "/api/v1/evaluations", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Mock data generators

func (c *ApiClient) mockSummary(order string) *RunSummary {
	return &RunSummary{
		RunID: fmt.Sprintf("mock-%d", time.Now().Unix()%1000),
		Order: order,
		Dish:  "tomato_and_egg_stir_fry",
		Result: RunResult{
			Status:     "completed",
			Steps:      6,
			Completed:  7,
			TotalTasks: 7,
		},
	}
}

func (c *ApiClient) mockRuns() []Run {
	now := time.Now()
	return []Run{
		{
			RunID:     "mock-31",
			OrderText: "tomato and egg stir fry",
			Dish:      "tomato_and_egg_stir_fry",
			Status:    "completed",
			Steps:     6,
			Completed: 7,
			StartedAt: now.Add(-10 * time.Minute),
		},
		{
			RunID:     "mock-30",
			OrderText: "chicken rice bowl",
			Dish:      "chicken_rice_bowl",
			Status:    "completed",
			Steps:     8,
			Completed: 5,
			StartedAt: now.Add(-25 * time.Minute),
		},
		{
			RunID:     "mock-29",
			OrderText: "mystery soup",
			Status:    "step_budget_exhausted",
			Dish:      "mystery_soup",
			Steps:     50,
			Completed: 2,
			StartedAt: now.Add(-60 * time.Minute),
		},
	}
}

func (c *ApiClient) mockActionLog() ActionLog {
	return ActionLog{
		"chef_1": {
			{Step: 0, AgentID: "chef_1", ActionType: "pick", Target: "vegetables", Position: Position{X: 8, Y: 5}, Success: true},
			{Step: 1, AgentID: "chef_1", ActionType: "slice", Target: "vegetables", Position: Position{X: 1, Y: 5}, Success: true},
			{Step: 2, AgentID: "chef_1", ActionType: "slice", Target: "vegetables", Position: Position{X: 1, Y: 5}, Success: true},
		},
		"chef_2": {
			{Step: 0, AgentID: "chef_2", ActionType: "pick", Target: "eggs", Position: Position{X: 8, Y: 5}, Success: true},
			{Step: 1, AgentID: "chef_2", ActionType: "slice", Target: "eggs", Position: Position{X: 1, Y: 5}, Success: true},
			{Step: 2, AgentID: "chef_2", ActionType: "wait", Position: Position{X: 1, Y: 5}, Success: true},
		},
	}
}
