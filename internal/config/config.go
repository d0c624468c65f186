package config

import (
	"fmt"
	"time"
)

type Config struct {
	Rod                 RodConfig           `yaml:"rod"`
	Backoff             BackoffConfig       `yaml:"backoff"`
	RobotsCacheTTLHours int                 `yaml:"robots_cache_ttl_hours"`
	HTTP                HttpConfig          `yaml:"http"`
	RateLimit           RateLimitConfig     `yaml:"rate_limit"`
	Pagination          PaginationConfig    `yaml:"pagination"`
	SelectorsFile       string              `yaml:"selectors_file"`
	Normalize           NormalizeConfig     `yaml:"normalize"`
	Storage             StorageConfig       `yaml:"storage"`
	Spreadsheet         SpreadsheetConfig   `yaml:"spreadsheet"`
	Observability       ObservabilityConfig `yaml:"observability"`

	// каталог файла конфига, от него разрешаются относительные пути
	baseDir string
}

// RodConfig - headless Chrome. Если enabled=false, страницы грузятся по HTTP.
type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	Headless         bool   `yaml:"headless"`
	NoSandbox        bool   `yaml:"no_sandbox"`
	Stealth          bool   `yaml:"stealth"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
	LazyLoadDelayS   int    `yaml:"lazy_load_delay_s"`
}

type BackoffConfig struct {
	MinMS     int `yaml:"min_ms"`
	MaxMS     int `yaml:"max_ms"`
	JitterPct int `yaml:"jitter_pct"`
}

type HttpConfig struct {
	UserAgent                 string `yaml:"user_agent"`
	AcceptLanguage            string `yaml:"accept_language"`
	TotalTimeoutMS            int    `yaml:"total_timeout_ms"`
	MaxRetries                int    `yaml:"max_retries"`
	MaxIdleConnections        int    `yaml:"max_idle_connections"`
	MaxIdleConnectionsPerHost int    `yaml:"max_idle_connections_per_host"`
	IdleConnectionTimeoutS    int    `yaml:"idle_connection_timeout_s"`
	RespectRobots             bool   `yaml:"respect_robots"`
}

type RateLimitConfig struct {
	MaxConcurrentPerHost int `yaml:"max_concurrent_per_host"`
	RPM                  int `yaml:"rpm"`
}

type PaginationConfig struct {
	BaseURL           string `yaml:"base_url"`
	Pages             int    `yaml:"pages"`
	WaitTimeoutS      int    `yaml:"wait_timeout_s"`
	SettleDelayMS     int    `yaml:"settle_delay_ms"`
	StructuralRetries int    `yaml:"structural_retries"`
}

type NormalizeConfig struct {
	StripSelectors []string `yaml:"strip_selectors"`
	TrimNBSP       bool     `yaml:"trim_nbsp"`
	CollapseSpaces bool     `yaml:"collapse_spaces"`
}

// StorageConfig - реляционный приёмник. Пустой driver отключает запись в БД.
type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
	BatchSize        int    `yaml:"batch_size"`
}

// SpreadsheetConfig - выгрузка в xlsx. Пустой path отключает выгрузку.
type SpreadsheetConfig struct {
	Path      string `yaml:"path"`
	SheetName string `yaml:"sheet_name"`
}

type ObservabilityConfig struct {
	LogPath  string `yaml:"log_path"`
	LogLevel string `yaml:"log_level"`
}

// Default возвращает конфиг, из которого работает запуск без файла
func Default() *Config {
	return &Config{
		Rod: RodConfig{
			Headless:         true,
			NoSandbox:        true,
			PageTimeoutS:     30,
			WaitLoadTimeoutS: 15,
		},
		Backoff: BackoffConfig{
			MinMS:     250,
			MaxMS:     4000,
			JitterPct: 20,
		},
		RobotsCacheTTLHours: 12,
		HTTP: HttpConfig{
			UserAgent:                 "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
			AcceptLanguage:            "en-US,en;q=0.9",
			TotalTimeoutMS:            30000,
			MaxRetries:                3,
			MaxIdleConnections:        100,
			MaxIdleConnectionsPerHost: 10,
			IdleConnectionTimeoutS:    90,
			RespectRobots:             true,
		},
		RateLimit: RateLimitConfig{
			MaxConcurrentPerHost: 1,
			RPM:                  30,
		},
		Pagination: PaginationConfig{
			Pages:         1,
			WaitTimeoutS:  10,
			SettleDelayMS: 2000,
		},
		Normalize: NormalizeConfig{
			TrimNBSP:       true,
			CollapseSpaces: true,
		},
		Storage: StorageConfig{
			CommandTimeoutMS: 30000,
			BatchSize:        200,
		},
		Spreadsheet: SpreadsheetConfig{
			SheetName: "Sheet1",
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if c.Pagination.Pages <= 0 {
		return fmt.Errorf("pagination.pages must be > 0")
	}
	if c.Pagination.WaitTimeoutS <= 0 {
		return fmt.Errorf("pagination.wait_timeout_s must be > 0")
	}
	if c.Pagination.SettleDelayMS < 0 {
		return fmt.Errorf("pagination.settle_delay_ms must be >= 0")
	}
	if c.Pagination.StructuralRetries < 0 {
		return fmt.Errorf("pagination.structural_retries must be >= 0")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.RateLimit.MaxConcurrentPerHost <= 0 {
		return fmt.Errorf("rate_limit.max_concurrent_per_host must be > 0")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("robots_cache_ttl_hours must be > 0")
	}
	if c.Backoff.MinMS <= 0 {
		return fmt.Errorf("backoff.min_ms must be > 0")
	}
	if c.Backoff.MaxMS <= 0 {
		return fmt.Errorf("backoff.max_ms must be > 0")
	}
	if c.Backoff.MinMS > c.Backoff.MaxMS {
		return fmt.Errorf("backoff.min_ms must be <= backoff.max_ms")
	}
	if c.Backoff.JitterPct < 0 || c.Backoff.JitterPct > 100 {
		return fmt.Errorf("backoff.jitter_pct must be between 0 and 100")
	}
	if c.Storage.Driver != "" {
		switch c.Storage.Driver {
		case "mysql", "sqlserver", "sqlite":
		default:
			return fmt.Errorf("storage.driver must be 'mysql', 'sqlserver' or 'sqlite'")
		}
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.driver is set")
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
		// у SQL Server лимит 2100 параметров на запрос, по 3 на строку
		if c.Storage.BatchSize <= 0 || c.Storage.BatchSize > 500 {
			return fmt.Errorf("storage.batch_size must be between 1 and 500")
		}
	}
	if c.Rod.Enabled {
		if c.Rod.PageTimeoutS <= 0 {
			return fmt.Errorf("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
		}
		if c.Rod.LazyLoadDelayS < 0 {
			return fmt.Errorf("rod.lazy_load_delay_s must be >= 0")
		}
	}
	return nil
}

// Getters
func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetIdleConnectionTimeout() time.Duration {
	return time.Duration(c.HTTP.IdleConnectionTimeoutS) * time.Second
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.Backoff.MinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.Backoff.MaxMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLHours) * time.Hour
}

func (c *Config) GetWaitTimeout() time.Duration {
	return time.Duration(c.Pagination.WaitTimeoutS) * time.Second
}

func (c *Config) GetSettleDelay() time.Duration {
	return time.Duration(c.Pagination.SettleDelayMS) * time.Millisecond
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}

func (c *Config) GetRodLazyLoadDelay() time.Duration {
	return time.Duration(c.Rod.LazyLoadDelayS) * time.Second
}
