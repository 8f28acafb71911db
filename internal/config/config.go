package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	BaseURL string `yaml:"base_url"`
	DataDir string `yaml:"data_dir"`

	StartPage int    `yaml:"start_page"`
	EndPage   int    `yaml:"end_page"`
	Order     string `yaml:"order"`
	Status    string `yaml:"status"`

	Timeout          Duration `yaml:"timeout"`
	PageDelay        Duration `yaml:"page_delay"`
	DetailDelay      Duration `yaml:"detail_delay"`
	ChapterPageDelay Duration `yaml:"chapter_page_delay"`
	ChapterDelay     Duration `yaml:"chapter_delay"`
	NovelDelay       Duration `yaml:"novel_delay"`

	RetryAttempts   int      `yaml:"retry_attempts"`
	RetryDelay      Duration `yaml:"retry_delay"`
	CheckpointEvery int      `yaml:"checkpoint_every"`

	StrictDedup  bool `yaml:"strict_dedup"`
	RefreshKnown bool `yaml:"refresh_known"`

	Cookie           string `yaml:"cookie"`
	CookieFile       string `yaml:"cookie_file"`
	UserAgent        string `yaml:"user_agent"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`

	LogFile string `yaml:"log_file"`
	Debug   bool   `yaml:"debug"`
}

type Options struct {
	IgnoreConfig bool
	Debug        bool

	BaseURL string
	DataDir string

	StartPage int
	EndPage   int
	Order     string
	Status    string

	StrictDedup  bool
	RefreshKnown bool

	Cookie           string
	CookieFile       string
	UserAgent        string
	CloudflareBypass bool

	LogFile string
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://lightnovelpub.org",
		DataDir: "./data",

		StartPage: 1,
		EndPage:   1,
		Order:     "popular",
		Status:    "completed",

		Timeout:          Duration(30 * time.Second),
		PageDelay:        Duration(2 * time.Second),
		DetailDelay:      Duration(2 * time.Second),
		ChapterPageDelay: Duration(time.Second),
		ChapterDelay:     Duration(time.Second),
		NovelDelay:       Duration(5 * time.Second),

		RetryAttempts:   3,
		RetryDelay:      Duration(2 * time.Second),
		CheckpointEvery: 10,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadMerged layers the active profile, NOVELD_* environment variables
// and command line flags, in that order, over the built-in defaults.
func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		applyEnv(cfg)
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		applyEnv(cfg)
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `noveld config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	applyEnv(cfg)
	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

// applyEnv overlays NOVELD_* environment variables, loading a .env
// file from the working directory first when one exists.
func applyEnv(c *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("NOVELD_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("NOVELD_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("NOVELD_COOKIE"); v != "" {
		c.Cookie = v
	}
	if v := os.Getenv("NOVELD_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
}

func mergeConfig(c *Config, o Options) {
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.StartPage != 0 {
		c.StartPage = o.StartPage
	}
	if o.EndPage != 0 {
		c.EndPage = o.EndPage
	}
	if o.Order != "" {
		c.Order = o.Order
	}
	if o.Status != "" {
		c.Status = o.Status
	}
	if o.StrictDedup {
		c.StrictDedup = true
	}
	if o.RefreshKnown {
		c.RefreshKnown = true
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.CloudflareBypass {
		c.CloudflareBypass = true
	}
	if o.LogFile != "" {
		c.LogFile = o.LogFile
	}
	if o.Debug {
		c.Debug = true
	}
}

func normalizeDefaults(c *Config) {
	if c.BaseURL == "" {
		c.BaseURL = "https://lightnovelpub.org"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.StartPage < 1 {
		c.StartPage = 1
	}
	if c.EndPage < c.StartPage {
		c.EndPage = c.StartPage
	}
	if c.Order == "" {
		c.Order = "popular"
	}
	if c.Status == "" {
		c.Status = "completed"
	}
	if c.Timeout <= 0 {
		c.Timeout = Duration(30 * time.Second)
	}
	if c.PageDelay <= 0 {
		c.PageDelay = Duration(2 * time.Second)
	}
	if c.DetailDelay <= 0 {
		c.DetailDelay = Duration(2 * time.Second)
	}
	if c.ChapterPageDelay <= 0 {
		c.ChapterPageDelay = Duration(time.Second)
	}
	if c.ChapterDelay <= 0 {
		c.ChapterDelay = Duration(time.Second)
	}
	if c.NovelDelay <= 0 {
		c.NovelDelay = Duration(5 * time.Second)
	}
	if c.RetryAttempts < 1 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = Duration(2 * time.Second)
	}
	if c.CheckpointEvery < 1 {
		c.CheckpointEvery = 10
	}
}

func (c *Config) Print() {
	fmt.Printf(" -base_url: %s\n", c.BaseURL)
	fmt.Printf(" -data_dir: %s\n", c.DataDir)
	fmt.Printf(" -pages: %d-%d (%s, %s)\n", c.StartPage, c.EndPage, c.Order, c.Status)
	fmt.Printf(" -timeout: %s\n", c.Timeout.Std())
	fmt.Printf(" -retries: %d every %s\n", c.RetryAttempts, c.RetryDelay.Std())
	fmt.Printf(" -checkpoint_every: %d\n", c.CheckpointEvery)
	if c.StrictDedup {
		fmt.Printf(" -strict_dedup: %t\n", c.StrictDedup)
	}
	if c.RefreshKnown {
		fmt.Printf(" -refresh_known: %t\n", c.RefreshKnown)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	if c.CloudflareBypass {
		fmt.Printf(" -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	if c.LogFile != "" {
		fmt.Printf(" -log_file: %s\n", c.LogFile)
	}
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
}
