package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера симуляции.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Content    ContentConfig    `yaml:"content"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Log        LogConfig        `yaml:"log"`
}

type SimulationConfig struct {
	Clock  ClockConfig   `yaml:"clock"`
	Player SpawnPoint    `yaml:"player"`
	Spawns []SpawnConfig `yaml:"spawns"`
}

// ClockConfig задаёт частоту тиков и шаг кадра
type ClockConfig struct {
	TickRate    int   `yaml:"tick_rate" env:"SKIRMISH_TICK_RATE"`
	FrameStepMs int64 `yaml:"frame_step_ms" env:"SKIRMISH_FRAME_STEP_MS"`
	MaxFrameMs  int64 `yaml:"max_frame_ms" env:"SKIRMISH_MAX_FRAME_MS"`
}

type SpawnPoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// SpawnConfig описывает монстра, создаваемого при старте
type SpawnConfig struct {
	Monster string  `yaml:"monster"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
}

type ContentConfig struct {
	Dir string `yaml:"dir" env:"SKIRMISH_CONTENT_DIR"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" env:"SKIRMISH_METRICS_ADDR"`
}

type EventBusConfig struct {
	URL       string `yaml:"url" env:"SKIRMISH_EVENTBUS_URL"`
	Stream    string `yaml:"stream" env:"SKIRMISH_EVENTBUS_STREAM"`
	Retention int    `yaml:"retention_hours" env:"SKIRMISH_EVENTBUS_RETENTION_HOURS"`
	Buffer    int    `yaml:"buffer" env:"SKIRMISH_EVENTBUS_BUFFER"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" env:"SKIRMISH_TELEMETRY_ENABLED"`
	ServiceName string `yaml:"service_name" env:"SKIRMISH_SERVICE_NAME"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"SKIRMISH_LOG_LEVEL"`
	Dir   string `yaml:"dir" env:"SKIRMISH_LOG_DIR"`
}

// Значения по умолчанию
const (
	DefaultTickRate    = 60
	DefaultFrameStepMs = 16
	DefaultMaxFrameMs  = 250
	DefaultContentDir  = "assets/content"
	DefaultMetricsAddr = ":2112"
	DefaultStream      = "EFFECTS"
	DefaultRetention   = 1
	DefaultBusBuffer   = 1024
	DefaultServiceName = "skirmish"
	DefaultLogLevel    = "info"
	DefaultLogDir      = "logs"
)

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load читает YAML файл конфигурации и накладывает переменные окружения.
// Приоритет: env -> файл -> значение по умолчанию.
// Если path == "", берётся SKIRMISH_CONFIG; если и он пуст - только env и дефолты.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SKIRMISH_CONFIG")
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse разбирает YAML в cfg без env и дефолтов
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("разбор конфигурации: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	targets := []interface{}{
		&c.Simulation.Clock,
		&c.Content,
		&c.Metrics,
		&c.EventBus,
		&c.Telemetry,
		&c.Log,
	}
	for _, target := range targets {
		if err := env.Parse(target); err != nil {
			return fmt.Errorf("parse env: %w", err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Simulation.Clock.TickRate <= 0 {
		c.Simulation.Clock.TickRate = DefaultTickRate
	}
	if c.Simulation.Clock.FrameStepMs <= 0 {
		c.Simulation.Clock.FrameStepMs = DefaultFrameStepMs
	}
	if c.Simulation.Clock.MaxFrameMs <= 0 {
		c.Simulation.Clock.MaxFrameMs = DefaultMaxFrameMs
	}
	if c.Content.Dir == "" {
		c.Content.Dir = DefaultContentDir
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.EventBus.Stream == "" {
		c.EventBus.Stream = DefaultStream
	}
	if c.EventBus.Retention <= 0 {
		c.EventBus.Retention = DefaultRetention
	}
	if c.EventBus.Buffer <= 0 {
		c.EventBus.Buffer = DefaultBusBuffer
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Dir == "" {
		c.Log.Dir = DefaultLogDir
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.Simulation.Clock.MaxFrameMs < c.Simulation.Clock.FrameStepMs {
		return fmt.Errorf("max_frame_ms (%d) меньше frame_step_ms (%d)",
			c.Simulation.Clock.MaxFrameMs, c.Simulation.Clock.FrameStepMs)
	}
	for i, spawn := range c.Simulation.Spawns {
		if spawn.Monster == "" {
			return fmt.Errorf("spawns[%d]: не указан monster", i)
		}
	}
	return nil
}
