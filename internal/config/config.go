package config

import (
	"fmt"
	"time"
)

type Config struct {
	Site          SiteConfig          `yaml:"site"`
	Browser       BrowserConfig       `yaml:"browser"`
	Timeouts      TimeoutsConfig      `yaml:"timeouts"`
	Retry         RetryConfig         `yaml:"retry"`
	Pagination    PaginationConfig    `yaml:"pagination"`
	HTTP          HttpConfig          `yaml:"http"`
	Normalize     NormalizeConfig     `yaml:"normalize"`
	Output        OutputConfig        `yaml:"output"`
	Export        ExportConfig        `yaml:"export"`
	WorkItem      WorkItem            `yaml:"work_item"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type SiteConfig struct {
	BaseURL      string `yaml:"base_url"`
	LocatorsFile string `yaml:"locators_file"`
}

type BrowserConfig struct {
	Driver       string `yaml:"driver"`
	ChromePath   string `yaml:"chrome_path"`
	Headless     bool   `yaml:"headless"`
	StaticDir    string `yaml:"static_dir"`
	PageTimeoutS int    `yaml:"page_timeout_s"`
}

type TimeoutsConfig struct {
	DefaultS     int `yaml:"default_s"`
	SearchFieldS int `yaml:"search_field_s"`
	SortS        int `yaml:"sort_s"`
	LoadingS     int `yaml:"loading_s"`
	ListingS     int `yaml:"listing_s"`
	NextPageS    int `yaml:"next_page_s"`
}

type RetryConfig struct {
	MaxRetries int `yaml:"max_retries"`
}

type PaginationConfig struct {
	MaxPages int `yaml:"max_pages"`
}

type HttpConfig struct {
	UserAgent      string `yaml:"user_agent"`
	TotalTimeoutMS int    `yaml:"total_timeout_ms"`
	MaxRetries     int    `yaml:"max_retries"`
	BackoffMinMS   int    `yaml:"backoff_min_ms"`
	BackoffMaxMS   int    `yaml:"backoff_max_ms"`
	JitterPct      int    `yaml:"jitter_pct"`
}

type NormalizeConfig struct {
	TrimNBSP       bool `yaml:"trim_nbsp"`
	CollapseSpaces bool `yaml:"collapse_spaces"`
}

type OutputConfig struct {
	Dir       string `yaml:"dir"`
	ImagesDir string `yaml:"images_dir"`
	FileName  string `yaml:"file_name"`
	SheetName string `yaml:"sheet_name"`
}

type ExportConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	Table            string `yaml:"table"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type ObservabilityConfig struct {
	LogPath    string `yaml:"log_path"`
	LogLevel   string `yaml:"log_level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default возвращает конфиг со значениями по умолчанию
func Default() *Config {
	cfg := &Config{
		Normalize: NormalizeConfig{TrimNBSP: true, CollapseSpaces: true},
		Browser:   BrowserConfig{Headless: true},
		Retry:     RetryConfig{MaxRetries: 2},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults заполняет незаданные поля
func (c *Config) ApplyDefaults() {
	setDefault(&c.Site.BaseURL, "https://www.latimes.com/")
	setDefault(&c.Browser.Driver, "rod")
	setDefaultInt(&c.Browser.PageTimeoutS, 60)

	setDefaultInt(&c.Timeouts.DefaultS, 5)
	setDefaultInt(&c.Timeouts.SearchFieldS, 30)
	setDefaultInt(&c.Timeouts.SortS, 20)
	setDefaultInt(&c.Timeouts.LoadingS, 20)
	setDefaultInt(&c.Timeouts.ListingS, 30)
	setDefaultInt(&c.Timeouts.NextPageS, 10)

	setDefault(&c.HTTP.UserAgent, "lanews-extractor/1.0")
	setDefaultInt(&c.HTTP.TotalTimeoutMS, 30000)
	setDefaultInt(&c.HTTP.BackoffMinMS, 250)
	setDefaultInt(&c.HTTP.BackoffMaxMS, 2000)

	setDefault(&c.Output.Dir, "output")
	setDefault(&c.Output.ImagesDir, "output/images")
	setDefault(&c.Output.FileName, "extracted_data.xlsx")
	setDefault(&c.Output.SheetName, "Election News Data")

	setDefault(&c.Export.Driver, "xlsx")
	setDefault(&c.Export.Table, "NewsArticles")
	setDefaultInt(&c.Export.CommandTimeoutMS, 30000)

	setDefault(&c.WorkItem.SearchPhrase, "Tennis")

	setDefault(&c.Observability.LogLevel, "info")
	setDefaultInt(&c.Observability.MaxSizeMB, 10)
	setDefaultInt(&c.Observability.MaxBackups, 5)
	setDefaultInt(&c.Observability.MaxAgeDays, 30)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setDefaultInt(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}

// Validation
func (c *Config) Validate() error {
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url is required")
	}
	switch c.Browser.Driver {
	case "rod":
		if c.Browser.PageTimeoutS <= 0 {
			return fmt.Errorf("browser.page_timeout_s must be > 0")
		}
	case "static":
		if c.Browser.StaticDir == "" {
			return fmt.Errorf("browser.static_dir is required when browser.driver is 'static'")
		}
	default:
		return fmt.Errorf("browser.driver must be 'rod' or 'static'")
	}
	if c.Timeouts.DefaultS <= 0 || c.Timeouts.SearchFieldS <= 0 || c.Timeouts.SortS <= 0 ||
		c.Timeouts.LoadingS <= 0 || c.Timeouts.ListingS <= 0 || c.Timeouts.NextPageS <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be >= 0")
	}
	if c.Pagination.MaxPages < 0 {
		return fmt.Errorf("pagination.max_pages must be >= 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.HTTP.BackoffMinMS <= 0 || c.HTTP.BackoffMaxMS <= 0 {
		return fmt.Errorf("http.backoff_min_ms and http.backoff_max_ms must be > 0")
	}
	if c.HTTP.BackoffMinMS > c.HTTP.BackoffMaxMS {
		return fmt.Errorf("http.backoff_min_ms must be <= http.backoff_max_ms")
	}
	if c.HTTP.JitterPct < 0 || c.HTTP.JitterPct > 100 {
		return fmt.Errorf("http.jitter_pct must be between 0 and 100")
	}
	if c.Output.Dir == "" || c.Output.ImagesDir == "" {
		return fmt.Errorf("output.dir and output.images_dir are required")
	}
	switch c.Export.Driver {
	case "xlsx":
		if c.Output.FileName == "" || c.Output.SheetName == "" {
			return fmt.Errorf("output.file_name and output.sheet_name are required for xlsx export")
		}
	case "mssql", "sqlite":
		if c.Export.DSN == "" {
			return fmt.Errorf("export.dsn is required for %s export", c.Export.Driver)
		}
		if c.Export.Table == "" {
			return fmt.Errorf("export.table is required for %s export", c.Export.Driver)
		}
	default:
		return fmt.Errorf("export.driver must be 'xlsx', 'mssql' or 'sqlite'")
	}
	if c.Export.CommandTimeoutMS <= 0 {
		return fmt.Errorf("export.command_timeout_ms must be > 0")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	return nil
}

// Getters
func seconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}

func (c *Config) GetPageTimeout() time.Duration {
	return seconds(c.Browser.PageTimeoutS)
}

func (c *Config) GetDefaultTimeout() time.Duration {
	return seconds(c.Timeouts.DefaultS)
}

func (c *Config) GetSearchFieldTimeout() time.Duration {
	return seconds(c.Timeouts.SearchFieldS)
}

func (c *Config) GetSortTimeout() time.Duration {
	return seconds(c.Timeouts.SortS)
}

func (c *Config) GetLoadingTimeout() time.Duration {
	return seconds(c.Timeouts.LoadingS)
}

func (c *Config) GetListingTimeout() time.Duration {
	return seconds(c.Timeouts.ListingS)
}

func (c *Config) GetNextPageTimeout() time.Duration {
	return seconds(c.Timeouts.NextPageS)
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.HTTP.BackoffMinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Export.CommandTimeoutMS) * time.Millisecond
}
