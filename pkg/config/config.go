package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type LLMConfig struct {
	Provider       string  `yaml:"provider"`
	Model          string  `yaml:"model"`
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	EmbeddingModel string  `yaml:"embedding_model"`
}

type DatabaseConfig struct {
	URL       string `yaml:"url"`
	TableName string `yaml:"table_name"`
	VectorDim int    `yaml:"vector_dim"`
	BatchSize int    `yaml:"batch_size"`
}

type CrawlerConfig struct {
	MaxDepth          int           `yaml:"max_depth"`
	MaxPages          int           `yaml:"max_pages"`
	RateLimit         float64       `yaml:"rate_limit"`
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	IgnorePatterns    []string      `yaml:"ignore_patterns"`
	AllowedExtensions []string      `yaml:"allowed_extensions"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	DataPath    string   `yaml:"data_path"`
	CORSOrigins []string `yaml:"cors_origins"`
	Watch       *bool    `yaml:"watch"`
}

type GraphConfig struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	Updates     int     `yaml:"updates"`
	Repulsion   float64 `yaml:"repulsion"`
	Theta       float64 `yaml:"theta"`
	Seed        uint64  `yaml:"seed"`
	HullPadding float64 `yaml:"hull_padding"`
	Labels      bool    `yaml:"labels"`
}

type CacheConfig struct {
	Path     string        `yaml:"path"`
	TTL      time.Duration `yaml:"ttl"`
	Disabled bool          `yaml:"disabled"`
}

type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Server   ServerConfig   `yaml:"server"`
	Graph    GraphConfig    `yaml:"graph"`
	Cache    CacheConfig    `yaml:"cache"`
}

// WatchEnabled reports whether serve should reload links.json on change.
func (c *Config) WatchEnabled() bool {
	return c.Server.Watch == nil || *c.Server.Watch
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"sitegraph.yaml",
			"sitegraph.yml",
			filepath.Join(os.Getenv("HOME"), ".config/sitegraph/config.yaml"),
			"/etc/sitegraph/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "anthropic"
	}
	if config.LLM.Model == "" {
		switch config.LLM.Provider {
		case "ollama":
			config.LLM.Model = "mistral"
		default:
			config.LLM.Model = "claude-3-7-sonnet-20250219"
		}
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 1500
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.5
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "nomic-embed-text"
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "pages"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 32
	}

	if config.Crawler.MaxDepth == 0 {
		config.Crawler.MaxDepth = 3
	}
	if config.Crawler.MaxPages == 0 {
		config.Crawler.MaxPages = 100
	}
	if config.Crawler.RateLimit == 0 {
		config.Crawler.RateLimit = 2.0
	}
	if config.Crawler.Timeout == 0 {
		config.Crawler.Timeout = 30 * time.Second
	}
	if config.Crawler.UserAgent == "" {
		config.Crawler.UserAgent = "sitegraph/1.0"
	}
	if len(config.Crawler.AllowedExtensions) == 0 {
		config.Crawler.AllowedExtensions = []string{".html", ".htm", ".xhtml", ".php", ".asp", ".aspx", ".jsp"}
	}

	if config.Server.Port == 0 {
		config.Server.Port = 5000
	}
	if config.Server.DataPath == "" {
		config.Server.DataPath = "links.json"
	}
	if len(config.Server.CORSOrigins) == 0 {
		config.Server.CORSOrigins = []string{"*"}
	}

	if config.Graph.Width == 0 {
		config.Graph.Width = 960
	}
	if config.Graph.Height == 0 {
		config.Graph.Height = 640
	}
	if config.Graph.HullPadding == 0 {
		config.Graph.HullPadding = 8
	}

	if config.Cache.Path == "" {
		config.Cache.Path = filepath.Join(".sitegraph", "analyses.db")
	}
	if config.Cache.TTL == 0 {
		config.Cache.TTL = 7 * 24 * time.Hour
	}
}

func mergeWithEnv(config *Config) {
	if provider := os.Getenv("SITEGRAPH_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && config.LLM.APIKey == "" {
		config.LLM.APIKey = key
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if data := os.Getenv("SITEGRAPH_DATA"); data != "" {
		config.Server.DataPath = data
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
}
