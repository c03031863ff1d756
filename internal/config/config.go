// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Selectors() SelectorsConfig
	Campaign() CampaignConfig
	Delays() timing.Delays
	Form() FormConfig
	Profile() ProfileConfig
	Metrics() MetricsConfig

	// Campaign setters, driven by CLI flags.
	SetCampaignQuota(int)
	SetCampaignMaxSteps(int)
	SetCampaignFailureThreshold(int)

	SetBrowserHeadless(bool)
	SetProfilePath(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	BrowserCfg   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	SelectorsCfg SelectorsConfig `mapstructure:"selectors" yaml:"selectors"`
	CampaignCfg  CampaignConfig  `mapstructure:"campaign" yaml:"campaign"`
	DelaysCfg    timing.Delays   `mapstructure:"delays" yaml:"delays"`
	FormCfg      FormConfig      `mapstructure:"form" yaml:"form"`
	ProfileCfg   ProfileConfig   `mapstructure:"profile" yaml:"profile"`
	MetricsCfg   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig     { return c.BrowserCfg }
func (c *Config) Selectors() SelectorsConfig { return c.SelectorsCfg }
func (c *Config) Campaign() CampaignConfig   { return c.CampaignCfg }
func (c *Config) Delays() timing.Delays      { return c.DelaysCfg }
func (c *Config) Form() FormConfig           { return c.FormCfg }
func (c *Config) Profile() ProfileConfig     { return c.ProfileCfg }
func (c *Config) Metrics() MetricsConfig     { return c.MetricsCfg }

func (c *Config) SetCampaignQuota(n int)            { c.CampaignCfg.Quota = n }
func (c *Config) SetCampaignMaxSteps(n int)         { c.CampaignCfg.MaxSteps = n }
func (c *Config) SetCampaignFailureThreshold(n int) { c.CampaignCfg.FailureThreshold = n }
func (c *Config) SetBrowserHeadless(b bool)         { c.BrowserCfg.Headless = b }
func (c *Config) SetProfilePath(p string)           { c.ProfileCfg.Path = p }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the terminal color used for each log level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls how the Chrome instance is obtained.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// RemoteURL attaches to an already running, logged-in browser instead of
	// launching one.
	RemoteURL         string        `mapstructure:"remote_url" yaml:"remote_url"`
	UserDataDir       string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	StartURL          string        `mapstructure:"start_url" yaml:"start_url"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	Debug             bool          `mapstructure:"debug" yaml:"debug"`
}

// SelectorsConfig describes the page family's listing and wizard surfaces.
type SelectorsConfig struct {
	ListingCard     string `mapstructure:"listing_card" yaml:"listing_card"`
	ListingIDAttr   string `mapstructure:"listing_id_attr" yaml:"listing_id_attr"`
	ListingTitle    string `mapstructure:"listing_title" yaml:"listing_title"`
	EligibleMarker  string `mapstructure:"eligible_marker" yaml:"eligible_marker"`
	AppliedMarker   string `mapstructure:"applied_marker" yaml:"applied_marker"`
	AppliedText     string `mapstructure:"applied_text" yaml:"applied_text"`
	FilterToggle    string `mapstructure:"filter_toggle" yaml:"filter_toggle"`
	FilterActive    string `mapstructure:"filter_active" yaml:"filter_active"`
	RevealMore      string `mapstructure:"reveal_more" yaml:"reveal_more"`
	ApplyButton     string `mapstructure:"apply_button" yaml:"apply_button"`
	WizardRoot      string `mapstructure:"wizard_root" yaml:"wizard_root"`
	SuccessSurface  string `mapstructure:"success_surface" yaml:"success_surface"`
	DismissButton   string `mapstructure:"dismiss_button" yaml:"dismiss_button"`
	DiscardButton   string `mapstructure:"discard_button" yaml:"discard_button"`
	ScrollContainer string `mapstructure:"scroll_container" yaml:"scroll_container"`
}

// CampaignConfig bounds one campaign run.
type CampaignConfig struct {
	Quota             int `mapstructure:"quota" yaml:"quota"`
	MaxSteps          int `mapstructure:"max_steps" yaml:"max_steps"`
	FailureThreshold  int `mapstructure:"failure_threshold" yaml:"failure_threshold"`
	RecoveryThreshold int `mapstructure:"recovery_threshold" yaml:"recovery_threshold"`
	MaxRecoveries     int `mapstructure:"max_recoveries" yaml:"max_recoveries"`
}

// FormConfig tunes classification, choice matching and wizard navigation.
type FormConfig struct {
	CountryMarkers      []string       `mapstructure:"country_markers" yaml:"country_markers"`
	MailMarkers         []string       `mapstructure:"mail_markers" yaml:"mail_markers"`
	SubmitKeywords      []string       `mapstructure:"submit_keywords" yaml:"submit_keywords"`
	AdvanceKeywords     []string       `mapstructure:"advance_keywords" yaml:"advance_keywords"`
	ConfirmationPhrases []string       `mapstructure:"confirmation_phrases" yaml:"confirmation_phrases"`
	Defaults            DefaultsConfig `mapstructure:"defaults" yaml:"defaults"`
}

// DefaultsConfig holds the fallback answers for fields the profile leaves
// blank.
type DefaultsConfig struct {
	NoticePeriod   string `mapstructure:"notice_period" yaml:"notice_period"`
	Degree         string `mapstructure:"degree" yaml:"degree"`
	ExpectedSalary string `mapstructure:"expected_salary" yaml:"expected_salary"`
	CurrentSalary  string `mapstructure:"current_salary" yaml:"current_salary"`
	Authorization  string `mapstructure:"authorization" yaml:"authorization"`
	Sponsorship    string `mapstructure:"sponsorship" yaml:"sponsorship"`
	Relocation     string `mapstructure:"relocation" yaml:"relocation"`
}

type ProfileConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// NewDefaultConfig builds a configuration populated only from defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults are static; an unmarshal failure here is a programming error.
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default configuration does not decode: %v", err))
	}
	return &cfg
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "quickapply")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.user_data_dir", "~/.quickapply/chrome")
	v.SetDefault("browser.start_url", "https://www.linkedin.com/jobs/search/?f_AL=true")
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.debug", false)

	// -- Selectors --
	v.SetDefault("selectors.listing_card", "li.jobs-search-results__list-item, li.scaffold-layout__list-item")
	v.SetDefault("selectors.listing_id_attr", "data-occludable-job-id")
	v.SetDefault("selectors.listing_title", ".job-card-list__title, .job-card-container__link")
	v.SetDefault("selectors.eligible_marker", ".job-card-container__apply-method, [data-test-job-card-easy-apply]")
	v.SetDefault("selectors.applied_marker", ".job-card-container__footer-job-state")
	v.SetDefault("selectors.applied_text", "applied")
	v.SetDefault("selectors.filter_toggle", "button[aria-label*='Easy Apply filter']")
	v.SetDefault("selectors.filter_active", "button[aria-label*='Easy Apply filter'][aria-checked='true']")
	v.SetDefault("selectors.reveal_more", "button.jobs-search-pagination__button--next, .artdeco-pagination__button--next")
	v.SetDefault("selectors.apply_button", "button.jobs-apply-button")
	v.SetDefault("selectors.wizard_root", ".jobs-easy-apply-modal, div[data-test-modal][role='dialog']")
	v.SetDefault("selectors.success_surface", ".artdeco-inline-feedback--success, .artdeco-toast-item--success, [data-test-modal-id='post-apply-modal']")
	v.SetDefault("selectors.dismiss_button", "button[aria-label='Dismiss']")
	v.SetDefault("selectors.discard_button", "button[data-control-name='discard_application_confirm_btn'], button[data-test-dialog-primary-btn]")
	v.SetDefault("selectors.scroll_container", ".jobs-search-results-list, .scaffold-layout__list")

	// -- Campaign --
	v.SetDefault("campaign.quota", 5)
	v.SetDefault("campaign.max_steps", 30)
	v.SetDefault("campaign.failure_threshold", 10)
	v.SetDefault("campaign.recovery_threshold", 5)
	v.SetDefault("campaign.max_recoveries", 3)

	// -- Delays --
	d := timing.DefaultDelays()
	v.SetDefault("delays.after_navigation", d.AfterNavigation)
	v.SetDefault("delays.after_select", d.AfterSelect)
	v.SetDefault("delays.after_click", d.AfterClick)
	v.SetDefault("delays.after_field", d.AfterField)
	v.SetDefault("delays.between_listings", d.BetweenListings)
	v.SetDefault("delays.poll_interval", d.PollInterval)
	v.SetDefault("delays.poll_attempts", d.PollAttempts)

	// -- Form --
	v.SetDefault("form.country_markers", []string{"india", "+91", "IN"})
	v.SetDefault("form.mail_markers", []string{"gmail.com", "@"})
	v.SetDefault("form.submit_keywords", []string{"submit application", "submit"})
	v.SetDefault("form.advance_keywords", []string{"next", "continue", "review", "continue to next step", "review your application"})
	v.SetDefault("form.confirmation_phrases", []string{
		"application sent", "application submitted", "your application was sent",
		"thank you for applying", "successfully submitted",
	})
	v.SetDefault("form.defaults.notice_period", "30")
	v.SetDefault("form.defaults.degree", "Bachelor's Degree")
	v.SetDefault("form.defaults.expected_salary", "1000000")
	v.SetDefault("form.defaults.current_salary", "800000")
	v.SetDefault("form.defaults.authorization", "Yes")
	v.SetDefault("form.defaults.sponsorship", "No")
	v.SetDefault("form.defaults.relocation", "Yes")

	// -- Profile --
	v.SetDefault("profile.path", "~/.quickapply/profile.yaml")

	// -- Metrics --
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", "127.0.0.1:9464")
}

// EnvPrefix prefixes every environment override, e.g.
// QUICKAPPLY_CAMPAIGN_QUOTA.
const EnvPrefix = "QUICKAPPLY"

// BindEnvironment lets environment variables override any defaulted key.
func BindEnvironment(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.CampaignCfg.Validate(); err != nil {
		return fmt.Errorf("campaign configuration invalid: %w", err)
	}
	if c.DelaysCfg.PollAttempts <= 0 {
		return fmt.Errorf("delays.poll_attempts must be a positive integer")
	}
	if c.DelaysCfg.PollInterval < 0 {
		return fmt.Errorf("delays.poll_interval must not be negative")
	}
	if len(c.FormCfg.SubmitKeywords) == 0 {
		return fmt.Errorf("form.submit_keywords must not be empty")
	}
	if len(c.FormCfg.AdvanceKeywords) == 0 {
		return fmt.Errorf("form.advance_keywords must not be empty")
	}
	if c.MetricsCfg.Enabled && c.MetricsCfg.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}

// Validate checks the campaign bounds.
func (c *CampaignConfig) Validate() error {
	if c.Quota <= 0 {
		return fmt.Errorf("quota must be a positive integer")
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be a positive integer")
	}
	if c.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be a positive integer")
	}
	if c.RecoveryThreshold < 0 || (c.RecoveryThreshold > 0 && c.RecoveryThreshold >= c.FailureThreshold) {
		return fmt.Errorf("recovery_threshold must be below failure_threshold (0 disables recovery)")
	}
	if c.MaxRecoveries < 0 {
		return fmt.Errorf("max_recoveries must not be negative")
	}
	return nil
}
