// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for the YAML file when none is given.
const DefaultPath = "configs/config.yaml"

const DefaultSearchURL = "https://www.linkedin.com/jobs/search/"

type Config struct {
	//Telegram status notifications (optional)
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	SearchURL string `yaml:"search_url"`
	Headless  bool   `yaml:"headless"`

	//Paths
	SettingsPath string `yaml:"settings_path"`
	CookiesPath  string `yaml:"cookies_path"`
	CachePath    string `yaml:"cache_path"`
	OutputDir    string `yaml:"output_dir"`

	Classifier ClassifierConfig `yaml:"classifier"`
	Limits     Limits           `yaml:"limits"`
	Selectors  Selectors        `yaml:"selectors"`
	Detail     DetailConfig     `yaml:"detail"`
	Sink       SinkConfig       `yaml:"sink"`
	Server     ServerConfig     `yaml:"server"`

	RedisURL      string `yaml:"redis_url"`
	StatusChannel string `yaml:"status_channel"`
}

type ClassifierConfig struct {
	Provider         string `yaml:"provider"` // openai, groq or gemini
	Model            string `yaml:"model"`
	BaseURL          string `yaml:"base_url"`
	AffirmativeToken string `yaml:"affirmative_token"`
}

// Limits are the static throttling knobs of a run.
type Limits struct {
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	TokensPerMinute   int           `yaml:"tokens_per_minute"`
	BackoffBase       time.Duration `yaml:"backoff_base"`
	SettleDelay       time.Duration `yaml:"settle_delay"`
	ItemDelayMin      time.Duration `yaml:"item_delay_min"`
	ItemDelayMax      time.Duration `yaml:"item_delay_max"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

// Selectors locate the parts of the job search page. LinkedIn changes its
// markup often, so all of them can be overridden from YAML.
type Selectors struct {
	Card       string `yaml:"card"`
	CardIDAttr string `yaml:"card_id_attr"`
	TitleLink  string `yaml:"title_link"`
	Title      string `yaml:"title"`
	Company    string `yaml:"company"`
	Location   string `yaml:"location"`
	NextButton string `yaml:"next_button"`
	ListFooter string `yaml:"list_footer"`
}

type DetailConfig struct {
	BaseURL string `yaml:"base_url"`
}

type SinkConfig struct {
	Kind              string `yaml:"kind"` // csv, sheets, postgres, notion
	DatabaseURL       string `yaml:"database_url"`
	NotionToken       string `yaml:"notion_token"`
	SheetsAccessToken string `yaml:"sheets_access_token"`
	SkipSeen          bool   `yaml:"skip_seen"`
	History           string `yaml:"history"` // file or redis
}

type ServerConfig struct {
	Port     string `yaml:"port"`
	Schedule string `yaml:"schedule"`
}

// DefaultSelectors match the LinkedIn job search layout.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:       ".job-card-container",
		CardIDAttr: "data-job-id",
		TitleLink:  ".job-card-list__title--link",
		Title:      ".job-card-list__title--link .visually-hidden",
		Company:    ".artdeco-entity-lockup__subtitle",
		Location:   ".artdeco-entity-lockup__caption",
		NextButton: ".jobs-search-pagination__button--next",
		ListFooter: "#jobs-search-results-footer",
	}
}

// DefaultLimits mirror the extension's pacing.
func DefaultLimits() Limits {
	return Limits{
		RequestsPerMinute: 20,
		TokensPerMinute:   40000,
		BackoffBase:       2 * time.Second,
		SettleDelay:       3 * time.Second,
		ItemDelayMin:      time.Second,
		ItemDelayMax:      3 * time.Second,
		RequestTimeout:    5 * time.Second,
	}
}

// Load reads .env, then the YAML file at path (missing file is a warning),
// then env overrides, and fills defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	//Load yaml config
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: Could not read %s: %v", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Sink.DatabaseURL = v
	}
	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		c.Sink.NotionToken = v
	}
	if v := os.Getenv("SHEETS_ACCESS_TOKEN"); v != "" {
		c.Sink.SheetsAccessToken = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.SearchURL == "" {
		c.SearchURL = DefaultSearchURL
	}
	if c.SettingsPath == "" {
		c.SettingsPath = "configs/settings.yaml"
	}
	if c.CookiesPath == "" {
		c.CookiesPath = "../.cookies/cookies-linkedin.json"
	}
	if c.CachePath == "" {
		c.CachePath = "../.cache"
	}
	if c.OutputDir == "" {
		c.OutputDir = "logs"
	}
	if c.Classifier.Provider == "" {
		c.Classifier.Provider = "openai"
	}
	if c.Classifier.AffirmativeToken == "" {
		c.Classifier.AffirmativeToken = "YES"
	}
	if c.Sink.Kind == "" {
		c.Sink.Kind = "csv"
	}
	if c.Sink.History == "" {
		c.Sink.History = "file"
	}
	if c.StatusChannel == "" {
		c.StatusChannel = "jobfilter:status"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}

	d := DefaultLimits()
	if c.Limits.RequestsPerMinute == 0 {
		c.Limits.RequestsPerMinute = d.RequestsPerMinute
	}
	if c.Limits.TokensPerMinute == 0 {
		c.Limits.TokensPerMinute = d.TokensPerMinute
	}
	if c.Limits.BackoffBase == 0 {
		c.Limits.BackoffBase = d.BackoffBase
	}
	if c.Limits.SettleDelay == 0 {
		c.Limits.SettleDelay = d.SettleDelay
	}
	if c.Limits.ItemDelayMin == 0 && c.Limits.ItemDelayMax == 0 {
		c.Limits.ItemDelayMin = d.ItemDelayMin
		c.Limits.ItemDelayMax = d.ItemDelayMax
	}
	if c.Limits.RequestTimeout == 0 {
		c.Limits.RequestTimeout = d.RequestTimeout
	}

	c.Selectors = c.Selectors.withDefaults()
}

func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.Card, d.Card)
	fill(&s.CardIDAttr, d.CardIDAttr)
	fill(&s.TitleLink, d.TitleLink)
	fill(&s.Title, d.Title)
	fill(&s.Company, d.Company)
	fill(&s.Location, d.Location)
	fill(&s.NextButton, d.NextButton)
	fill(&s.ListFooter, d.ListFooter)
	return s
}
