// Package config loads the service configuration from a yaml file,
// falling back to built-in defaults when no file is present.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"brigade/internal/decompose"
	"brigade/internal/kitchen"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Auth     AuthConfig    `yaml:"auth"`
	Database DBConfig      `yaml:"database"`
	LLM      LLMConfig     `yaml:"llm"`
	Kitchen  KitchenConfig `yaml:"kitchen"`
}

// ServerConfig holds the listener ports
type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
}

// AuthConfig gates the mutating API endpoints behind a bearer token
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Secret  string `yaml:"secret"`
}

// DBConfig points at the run database. Driver is "sqlite3" or
// "postgres"; Source is the file path or connection string.
type DBConfig struct {
	Driver string `yaml:"driver"`
	Source string `yaml:"source"`
}

// LLMConfig selects the language model. An empty key disables the model
// and the service runs fully deterministic.
type LLMConfig struct {
	OpenAIKey string `yaml:"openai_key"`
	Model     string `yaml:"model"`
}

// AgentConfig seeds one chef of the brigade
type AgentConfig struct {
	ID             string           `yaml:"id"`
	Position       kitchen.Position `yaml:"position"`
	Specialization string           `yaml:"specialization,omitempty"`
}

// KitchenConfig tunes the run loop and describes the physical kitchen
type KitchenConfig struct {
	StepBudget       int              `yaml:"step_budget"`
	StallWindow      int              `yaml:"stall_window"`
	ActuationTimeout int              `yaml:"actuation_timeout_seconds"`
	SimulatorLatency int              `yaml:"simulator_latency_ms"`
	RobotBridgeURL   string           `yaml:"robot_bridge_url,omitempty"`
	Agents           []AgentConfig    `yaml:"agents"`
	Stations         decompose.Layout `yaml:"stations"`
}

// Default returns the configuration used when no file is given: three
// chefs, the demo kitchen grid, simulator actuation.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			MetricsPort: 9090,
		},
		Database: DBConfig{Driver: "sqlite3", Source: "brigade.db"},
		LLM:      LLMConfig{Model: "gpt-4-turbo-preview"},
		Kitchen: KitchenConfig{
			StepBudget:       kitchen.DefaultStepBudget,
			StallWindow:      kitchen.DefaultStallWindow,
			ActuationTimeout: 5,
			Agents: []AgentConfig{
				{ID: "chef_1", Position: kitchen.Position{X: 1, Y: 1}},
				{ID: "chef_2", Position: kitchen.Position{X: 1, Y: 5}},
				{ID: "chef_3", Position: kitchen.Position{X: 8, Y: 5}},
			},
			Stations: decompose.DefaultLayout(),
		},
	}
}

// Load reads the configuration file at path. A missing file is not an
// error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, config.validate()
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Kitchen.StepBudget < 0 {
		return fmt.Errorf("step budget must not be negative")
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return fmt.Errorf("auth enabled without a secret")
	}
	seen := make(map[string]bool)
	for _, agent := range c.Kitchen.Agents {
		if agent.ID == "" {
			return fmt.Errorf("agent with empty id")
		}
		if seen[agent.ID] {
			return fmt.Errorf("duplicate agent id %s", agent.ID)
		}
		seen[agent.ID] = true
	}
	return nil
}

// Roster builds the initial agent records from the configured brigade
func (c *Config) Roster() []kitchen.AgentRecord {
	roster := make([]kitchen.AgentRecord, 0, len(c.Kitchen.Agents))
	for _, agent := range c.Kitchen.Agents {
		roster = append(roster, kitchen.AgentRecord{
			ID:             agent.ID,
			Position:       agent.Position,
			Availability:   kitchen.AvailabilityIdle,
			Specialization: kitchen.Kind(agent.Specialization),
		})
	}
	return roster
}
