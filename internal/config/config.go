package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	Portal      PortalConfig      `mapstructure:"portal"`
	Automation  AutomationConfig  `mapstructure:"automation"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	History     HistoryConfig     `mapstructure:"history"`
	Lark        LarkConfig        `mapstructure:"lark"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"` // empty uses the embedded set
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level         string `mapstructure:"level"`
	OutputPath    string `mapstructure:"output_path"`
	Format        string `mapstructure:"format"`
	AutomationDir string `mapstructure:"automation_dir"`
}

// BrowserConfig controls the Chrome session
type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"`
	ExecPath       string        `mapstructure:"exec_path"`
	UserDataDir    string        `mapstructure:"user_data_dir"`
	WindowWidth    int           `mapstructure:"window_width"`
	WindowHeight   int           `mapstructure:"window_height"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	FieldTimeout   time.Duration `mapstructure:"field_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

// PortalConfig describes the ClassWallet deployment
type PortalConfig struct {
	LoginURL       string            `mapstructure:"login_url"`
	PortalURL      string            `mapstructure:"portal_url"`
	FundingSource  string            `mapstructure:"funding_source"`
	StudentAliases map[string]string `mapstructure:"student_aliases"`
}

// DelayConfig holds the fixed settle delays used where no page condition can be polled
type DelayConfig struct {
	AfterLogin     time.Duration `mapstructure:"after_login"`
	AfterUpload    time.Duration `mapstructure:"after_upload"`
	AfterModal     time.Duration `mapstructure:"after_modal"`
	BeforeCategory time.Duration `mapstructure:"before_category"`
	AfterSearch    time.Duration `mapstructure:"after_search"`
	AfterClick     time.Duration `mapstructure:"after_click"`
}

// AutomationConfig holds workflow behaviour
type AutomationConfig struct {
	AutoSubmit               bool          `mapstructure:"auto_submit"`
	KeepOpen                 bool          `mapstructure:"keep_open"`
	ConfirmationTimeout      time.Duration `mapstructure:"confirmation_timeout"`
	ConfirmationInterval     time.Duration `mapstructure:"confirmation_interval"`
	AssumeSubmittedOnTimeout bool          `mapstructure:"assume_submitted_on_timeout"`
	MaxImageEditors          int           `mapstructure:"max_image_editors"`
	VerifyDocuments          bool          `mapstructure:"verify_documents"`
	Delays                   DelayConfig   `mapstructure:"delays"`
}

// CredentialsConfig locates the portal credentials
type CredentialsConfig struct {
	Path     string `mapstructure:"path"`
	Identity string `mapstructure:"identity"`
	Secret   string `mapstructure:"secret"`
}

// HistoryConfig controls the submission history side effects
type HistoryConfig struct {
	LogDir    string `mapstructure:"log_dir"`
	CreatedBy string `mapstructure:"created_by"`
	ExportDir string `mapstructure:"export_dir"`
}

// LarkConfig holds the optional operator notification settings
type LarkConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	AppID         string        `mapstructure:"app_id"`
	AppSecret     string        `mapstructure:"app_secret"`
	ReceiveIDType string        `mapstructure:"receive_id_type"`
	ReceiveID     string        `mapstructure:"receive_id"`
	APITimeout    time.Duration `mapstructure:"api_timeout"`
}

// Load loads configuration from file and environment variables.
// A missing file at configPath falls back to defaults.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs without overriding the real environment
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/submissions.db")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.automation_dir", "logs")

	// Browser defaults
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.window_width", 1400)
	v.SetDefault("browser.window_height", 1000)
	v.SetDefault("browser.probe_timeout", 3*time.Second)
	v.SetDefault("browser.default_timeout", 10*time.Second)
	v.SetDefault("browser.field_timeout", 5*time.Second)
	v.SetDefault("browser.poll_interval", 250*time.Millisecond)

	// Portal defaults
	v.SetDefault("portal.login_url", "https://esaportal.azed.gov/ApplicantPortal")
	v.SetDefault("portal.portal_url", "https://saml.classwallet.com/")
	v.SetDefault("portal.funding_source", "Arizona - ESA")
	v.SetDefault("portal.student_aliases", map[string]string{
		"student1": "Student One",
		"student2": "Student Two",
		"student3": "Student Three",
	})

	// Automation defaults
	v.SetDefault("automation.auto_submit", false)
	v.SetDefault("automation.keep_open", true)
	v.SetDefault("automation.confirmation_timeout", 15*time.Second)
	v.SetDefault("automation.confirmation_interval", time.Second)
	v.SetDefault("automation.assume_submitted_on_timeout", true)
	v.SetDefault("automation.max_image_editors", 10)
	v.SetDefault("automation.verify_documents", false)
	v.SetDefault("automation.delays.after_login", 3*time.Second)
	v.SetDefault("automation.delays.after_upload", 4*time.Second)
	v.SetDefault("automation.delays.after_modal", 1500*time.Millisecond)
	v.SetDefault("automation.delays.before_category", 3*time.Second)
	v.SetDefault("automation.delays.after_search", 2*time.Second)
	v.SetDefault("automation.delays.after_click", time.Second)

	// Credentials defaults
	v.SetDefault("credentials.path", "data/credentials.json")

	// History defaults
	v.SetDefault("history.log_dir", "logs")
	v.SetDefault("history.created_by", "production")
	v.SetDefault("history.export_dir", "exports")

	// Lark defaults
	v.SetDefault("lark.enabled", false)
	v.SetDefault("lark.receive_id_type", "open_id")
	v.SetDefault("lark.api_timeout", 30*time.Second)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("credentials.identity", "CLASSWALLET_IDENTITY")
	_ = v.BindEnv("credentials.secret", "CLASSWALLET_SECRET")
	_ = v.BindEnv("credentials.path", "CLASSWALLET_CREDENTIALS")
	_ = v.BindEnv("lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	_ = v.BindEnv("lark.receive_id", "LARK_RECEIVE_ID")
	_ = v.BindEnv("browser.headless", "BROWSER_HEADLESS")
	_ = v.BindEnv("browser.exec_path", "CHROME_PATH")
	_ = v.BindEnv("history.created_by", "SUBMISSION_CREATED_BY")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Portal.LoginURL == "" || c.Portal.PortalURL == "" {
		return fmt.Errorf("portal.login_url and portal.portal_url are required")
	}

	if c.Browser.ProbeTimeout <= 0 || c.Browser.DefaultTimeout <= 0 || c.Browser.FieldTimeout <= 0 {
		return fmt.Errorf("browser timeouts must be positive")
	}

	if c.Automation.ConfirmationTimeout <= 0 {
		return fmt.Errorf("automation.confirmation_timeout must be positive")
	}
	if c.Automation.MaxImageEditors <= 0 {
		return fmt.Errorf("automation.max_image_editors must be positive")
	}

	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
		if c.Lark.ReceiveID == "" {
			return fmt.Errorf("lark.receive_id is required")
		}
	}

	return nil
}
