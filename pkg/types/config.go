// Package types defines configuration types for displaywatcher.
package types

import (
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Package-level defaults
const (
	DefaultAPIVersion       = "displaywatcher.io/v1alpha1"
	DefaultKind             = "DisplayWatcherConfig"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultLogOutput        = "stdout"
	DefaultMaxReboots       = 3
	DefaultRebootCommand    = "shutdown -r now"
	DefaultCounterFile      = "/var/lib/displaywatcher/history"
	DefaultSMTPPort         = 587
	DefaultSMTPEncryption   = "tls"
	DefaultSMTPTimeout      = "30s"
	DefaultMetricsJob       = "displaywatcher"
	DefaultJournalPath      = "/var/lib/displaywatcher/journal.db"
	DefaultJournalRetention = "720h"
	DefaultErrorMessage     = "Error in displaywatcher run, check logs."
	MaxProbeTimeout         = 30 * time.Minute
)

// Package-level variables for validation
var (
	validLogLevels = map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	validLogFormats = map[string]bool{
		"json": true,
		"text": true,
	}

	validLogOutputs = map[string]bool{
		"stdout": true,
		"stderr": true,
		"file":   true,
	}

	validSMTPEncryptions = map[string]bool{
		"tls":  true,
		"none": true,
	}
)

// DefaultOutputTranslation matches the "-p" mode of the display positioner,
// which prints "true" or "false".
func DefaultOutputTranslation() map[string]bool {
	return map[string]bool{
		"true":  true,
		"false": false,
	}
}

// WatcherConfig is the top-level configuration structure.
type WatcherConfig struct {
	// APIVersion of the configuration schema
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`

	// Kind of resource (always "DisplayWatcherConfig")
	Kind string `json:"kind" yaml:"kind"`

	Settings     GlobalSettings     `json:"settings" yaml:"settings"`
	Probe        ProbeConfig        `json:"probe" yaml:"probe"`
	Recovery     RecoveryConfig     `json:"recovery" yaml:"recovery"`
	Notification NotificationConfig `json:"notification" yaml:"notification"`
	Metrics      MetricsConfig      `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Journal      JournalConfig      `json:"journal,omitempty" yaml:"journal,omitempty"`
}

// GlobalSettings contains process-wide settings.
type GlobalSettings struct {
	// Hostname used in notifications and metric labels (defaults to os.Hostname)
	Hostname string `json:"hostname,omitempty" yaml:"hostname,omitempty"`

	// Logging configuration
	LogLevel  string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	LogOutput string `json:"logOutput,omitempty" yaml:"logOutput,omitempty"`
	LogFile   string `json:"logFile,omitempty" yaml:"logFile,omitempty"`
}

// ProbeConfig describes the external health probe.
type ProbeConfig struct {
	// Command is the absolute path of the probe executable
	Command string `json:"command" yaml:"command"`

	// Args are passed to the probe verbatim
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	// OutputTranslation maps trimmed probe stdout to "positions correct"
	OutputTranslation map[string]bool `json:"outputTranslation,omitempty" yaml:"outputTranslation,omitempty"`

	// Timeout bounds a single probe execution; empty means no timeout
	TimeoutString string        `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Timeout       time.Duration `json:"-" yaml:"-"`
}

// RecoveryConfig describes the reboot budget and the reboot action.
type RecoveryConfig struct {
	// MaxRebootsSetting is the raw value; nil selects DefaultMaxReboots so that
	// an explicit 0 ("never reboot") stays distinguishable from "unset".
	MaxRebootsSetting *int `json:"maxReboots,omitempty" yaml:"maxReboots,omitempty"`
	MaxReboots        int  `json:"-" yaml:"-"`

	// RebootCommand is run through the system shell
	RebootCommand string `json:"rebootCommand,omitempty" yaml:"rebootCommand,omitempty"`

	// CounterFile holds the decimal attempt count
	CounterFile string `json:"counterFile,omitempty" yaml:"counterFile,omitempty"`

	// DryRun logs the reboot command instead of running it
	DryRun bool `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
}

// NotificationConfig configures outbound mail.
type NotificationConfig struct {
	Enabled   bool        `json:"enabled" yaml:"enabled"`
	SMTP      SMTPConfig  `json:"smtp" yaml:"smtp"`
	Sender    MailAddress `json:"sender" yaml:"sender"`
	Recipient MailAddress `json:"recipient" yaml:"recipient"`
}

// SMTPConfig contains mail transport parameters.
type SMTPConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// Encryption is "tls" (STARTTLS when the server offers it) or "none"
	Encryption string `json:"encryption,omitempty" yaml:"encryption,omitempty"`

	// Debug logs the SMTP conversation
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`

	TimeoutString string        `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Timeout       time.Duration `json:"-" yaml:"-"`
}

// MailAddress is a display name plus address.
type MailAddress struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email" yaml:"email"`
}

// MetricsConfig configures run metrics export.
type MetricsConfig struct {
	// Textfile is a .prom file for the node_exporter textfile collector
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty"`

	// PushgatewayURL enables pushing to a Prometheus Pushgateway
	PushgatewayURL string `json:"pushgatewayURL,omitempty" yaml:"pushgatewayURL,omitempty"`

	// Job is the Pushgateway job name
	Job string `json:"job,omitempty" yaml:"job,omitempty"`
}

// Enabled reports whether any metrics sink is configured.
func (m *MetricsConfig) Enabled() bool {
	return m.Textfile != "" || m.PushgatewayURL != ""
}

// JournalConfig configures the SQLite run journal.
type JournalConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`

	RetentionString string        `json:"retention,omitempty" yaml:"retention,omitempty"`
	Retention       time.Duration `json:"-" yaml:"-"`
}

// ApplyDefaults applies default values to the whole configuration.
func (c *WatcherConfig) ApplyDefaults() error {
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Kind == "" {
		c.Kind = DefaultKind
	}

	c.Settings.ApplyDefaults()

	if err := c.Probe.ApplyDefaults(); err != nil {
		return fmt.Errorf("failed to apply defaults to probe: %w", err)
	}

	c.Recovery.ApplyDefaults()

	if err := c.Notification.ApplyDefaults(); err != nil {
		return fmt.Errorf("failed to apply defaults to notification: %w", err)
	}

	c.Metrics.ApplyDefaults()

	if err := c.Journal.ApplyDefaults(); err != nil {
		return fmt.Errorf("failed to apply defaults to journal: %w", err)
	}

	return nil
}

// ApplyDefaults applies default values to GlobalSettings.
func (s *GlobalSettings) ApplyDefaults() {
	if s.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "localhost"
		}
		s.Hostname = hostname
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	if s.LogFormat == "" {
		s.LogFormat = DefaultLogFormat
	}
	if s.LogOutput == "" {
		s.LogOutput = DefaultLogOutput
	}
}

// ApplyDefaults applies default values to ProbeConfig.
func (p *ProbeConfig) ApplyDefaults() error {
	if p.OutputTranslation == nil {
		p.OutputTranslation = DefaultOutputTranslation()
	}

	if p.TimeoutString != "" {
		timeout, err := time.ParseDuration(p.TimeoutString)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", p.TimeoutString, err)
		}
		p.Timeout = timeout
	}

	return nil
}

// ApplyDefaults applies default values to RecoveryConfig.
func (r *RecoveryConfig) ApplyDefaults() {
	if r.MaxRebootsSetting == nil {
		r.MaxReboots = DefaultMaxReboots
	} else {
		r.MaxReboots = *r.MaxRebootsSetting
	}
	if r.RebootCommand == "" {
		r.RebootCommand = DefaultRebootCommand
	}
	if r.CounterFile == "" {
		r.CounterFile = DefaultCounterFile
	}
}

// ApplyDefaults applies default values to NotificationConfig.
func (n *NotificationConfig) ApplyDefaults() error {
	if n.SMTP.Port == 0 {
		n.SMTP.Port = DefaultSMTPPort
	}
	if n.SMTP.Encryption == "" {
		n.SMTP.Encryption = DefaultSMTPEncryption
	}
	if n.SMTP.TimeoutString == "" {
		n.SMTP.TimeoutString = DefaultSMTPTimeout
	}

	timeout, err := time.ParseDuration(n.SMTP.TimeoutString)
	if err != nil {
		return fmt.Errorf("invalid smtp.timeout %q: %w", n.SMTP.TimeoutString, err)
	}
	n.SMTP.Timeout = timeout

	return nil
}

// ApplyDefaults applies default values to MetricsConfig.
func (m *MetricsConfig) ApplyDefaults() {
	if m.Job == "" {
		m.Job = DefaultMetricsJob
	}
}

// ApplyDefaults applies default values to JournalConfig.
func (j *JournalConfig) ApplyDefaults() error {
	if j.Path == "" {
		j.Path = DefaultJournalPath
	}
	if j.RetentionString == "" {
		j.RetentionString = DefaultJournalRetention
	}

	retention, err := time.ParseDuration(j.RetentionString)
	if err != nil {
		return fmt.Errorf("invalid retention %q: %w", j.RetentionString, err)
	}
	j.Retention = retention

	return nil
}

// Validate validates the whole configuration.
func (c *WatcherConfig) Validate() error {
	if c.APIVersion == "" {
		return fmt.Errorf("apiVersion is required")
	}
	if c.Kind != DefaultKind {
		return fmt.Errorf("kind must be %q, got %q", DefaultKind, c.Kind)
	}

	if err := c.Settings.Validate(); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}
	if err := c.Probe.Validate(); err != nil {
		return fmt.Errorf("probe validation failed: %w", err)
	}
	if err := c.Recovery.Validate(); err != nil {
		return fmt.Errorf("recovery validation failed: %w", err)
	}
	if err := c.Notification.Validate(); err != nil {
		return fmt.Errorf("notification validation failed: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics validation failed: %w", err)
	}
	if err := c.Journal.Validate(); err != nil {
		return fmt.Errorf("journal validation failed: %w", err)
	}

	return nil
}

// Validate validates the GlobalSettings configuration.
func (s *GlobalSettings) Validate() error {
	if s.Hostname == "" {
		return fmt.Errorf("hostname is required")
	}
	if !validLogLevels[s.LogLevel] {
		return fmt.Errorf("invalid logLevel %q, must be one of: debug, info, warn, error", s.LogLevel)
	}
	if !validLogFormats[s.LogFormat] {
		return fmt.Errorf("invalid logFormat %q, must be one of: json, text", s.LogFormat)
	}
	if !validLogOutputs[s.LogOutput] {
		return fmt.Errorf("invalid logOutput %q, must be one of: stdout, stderr, file", s.LogOutput)
	}
	if s.LogOutput == "file" && s.LogFile == "" {
		return fmt.Errorf("logFile is required when logOutput is 'file'")
	}
	return nil
}

// Validate validates the ProbeConfig configuration.
func (p *ProbeConfig) Validate() error {
	if p.Command == "" {
		return fmt.Errorf("command is required")
	}
	if !filepath.IsAbs(p.Command) {
		return fmt.Errorf("command must be an absolute path, got %q", p.Command)
	}
	if len(p.OutputTranslation) == 0 {
		return fmt.Errorf("outputTranslation must contain at least one entry")
	}
	if p.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", p.Timeout)
	}
	if p.Timeout > MaxProbeTimeout {
		return fmt.Errorf("timeout must not exceed %v, got %v", MaxProbeTimeout, p.Timeout)
	}
	return nil
}

// Validate validates the RecoveryConfig configuration.
func (r *RecoveryConfig) Validate() error {
	if r.MaxReboots < 0 {
		return fmt.Errorf("maxReboots must be non-negative, got %d", r.MaxReboots)
	}
	if r.RebootCommand == "" {
		return fmt.Errorf("rebootCommand is required")
	}
	if r.CounterFile == "" {
		return fmt.Errorf("counterFile is required")
	}
	return nil
}

// Validate validates the NotificationConfig configuration.
// Transport fields are only checked when notifications are enabled.
func (n *NotificationConfig) Validate() error {
	if !n.Enabled {
		return nil
	}

	if n.SMTP.Host == "" {
		return fmt.Errorf("smtp.host is required when notifications are enabled")
	}
	if n.SMTP.Port <= 0 || n.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port must be between 1 and 65535, got %d", n.SMTP.Port)
	}
	if !validSMTPEncryptions[n.SMTP.Encryption] {
		return fmt.Errorf("invalid smtp.encryption %q, must be one of: tls, none", n.SMTP.Encryption)
	}
	if n.SMTP.Password != "" && n.SMTP.Username == "" {
		return fmt.Errorf("smtp.username is required when smtp.password is set")
	}
	if n.SMTP.Timeout <= 0 {
		return fmt.Errorf("smtp.timeout must be positive, got %v", n.SMTP.Timeout)
	}
	if err := n.Sender.Validate(); err != nil {
		return fmt.Errorf("sender: %w", err)
	}
	if err := n.Recipient.Validate(); err != nil {
		return fmt.Errorf("recipient: %w", err)
	}
	return nil
}

// Validate validates a MailAddress.
func (a *MailAddress) Validate() error {
	if a.Email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(a.Email); err != nil {
		return fmt.Errorf("invalid email %q: %w", a.Email, err)
	}
	return nil
}

// Validate validates the MetricsConfig configuration.
func (m *MetricsConfig) Validate() error {
	if m.PushgatewayURL != "" {
		u, err := url.Parse(m.PushgatewayURL)
		if err != nil {
			return fmt.Errorf("invalid pushgatewayURL %q: %w", m.PushgatewayURL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("pushgatewayURL must use http or https, got %q", u.Scheme)
		}
		if m.Job == "" {
			return fmt.Errorf("job is required when pushgatewayURL is set")
		}
	}
	return nil
}

// Validate validates the JournalConfig configuration.
func (j *JournalConfig) Validate() error {
	if !j.Enabled {
		return nil
	}
	if j.Path == "" {
		return fmt.Errorf("path is required when the journal is enabled")
	}
	if j.Retention <= 0 {
		return fmt.Errorf("retention must be positive, got %v", j.Retention)
	}
	return nil
}
