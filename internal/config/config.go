// Package config provides layered configuration loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the resolved configuration.
type Config struct {
	// OAuth service settings
	OAuthBaseURL string `json:"oauth_base_url"`

	// Google Ads API settings
	AdsBaseURL      string `json:"ads_base_url"`
	APIVersion      string `json:"api_version"`
	DeveloperToken  string `json:"developer_token"`
	CustomerID      string `json:"customer_id"`
	LoginCustomerID string `json:"login_customer_id"`

	// Credential storage
	CredentialFile    string `json:"credential_file"`
	CredentialBackend string `json:"credential_backend"` // "file" or "keyring"

	// Token lifecycle
	SkewSeconds     int `json:"skew_seconds"`
	AuthWaitSeconds int `json:"auth_wait_seconds"`

	// Output settings
	Format string `json:"format"`

	// Behavior preferences (persisted via config set, overridable by flags)
	Hints   *bool `json:"hints,omitempty"`
	Stats   *bool `json:"stats,omitempty"`
	Verbose *int  `json:"verbose,omitempty"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceSystem  Source = "system"
	SourceGlobal  Source = "global"
	SourceLocal   Source = "local"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	CustomerID      string
	LoginCustomerID string
	DeveloperToken  string
	CredentialFile  string
	Format          string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		OAuthBaseURL:      "https://auth.adsctl.app/oauth",
		AdsBaseURL:        "https://googleads.googleapis.com",
		APIVersion:        "v21",
		CredentialFile:    filepath.Join(GlobalConfigDir(), "credentials.json"),
		CredentialBackend: "file",
		SkewSeconds:       300,
		AuthWaitSeconds:   180,
		Format:            "auto",
		Sources:           make(map[string]string),
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env > local > global > system > defaults
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, systemConfigPath(), SourceSystem)
	loadFromFile(cfg, globalConfigPath(), SourceGlobal)
	loadFromFile(cfg, localConfigPath(), SourceLocal)

	LoadFromEnv(cfg)
	ApplyOverrides(cfg, overrides)

	return cfg, nil
}

func loadFromFile(cfg *Config, path string, source Source) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return // File doesn't exist, skip
	}

	var fileCfg map[string]any
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed config at %s: %v\n", path, err)
		return
	}

	// Authority keys (oauth_base_url, ads_base_url, credential_file) control
	// where tokens are sent and stored. Local config must not set these: a
	// malicious .adsctl/config.json in a cloned directory could redirect
	// authenticated traffic or plant a credential file.
	untrusted := source == SourceLocal

	authorityKeys := []struct {
		key string
		dst *string
	}{
		{"oauth_base_url", &cfg.OAuthBaseURL},
		{"ads_base_url", &cfg.AdsBaseURL},
		{"credential_file", &cfg.CredentialFile},
	}
	for _, a := range authorityKeys {
		if v, ok := fileCfg[a.key].(string); ok && v != "" {
			if untrusted {
				fmt.Fprintf(os.Stderr, "warning: ignoring %s %q from %s config at %s (authority keys are not trusted from local config)\n", a.key, v, source, path)
				continue
			}
			*a.dst = v
			cfg.Sources[a.key] = string(source)
		}
	}

	if v, ok := fileCfg["api_version"].(string); ok && v != "" {
		cfg.APIVersion = v
		cfg.Sources["api_version"] = string(source)
	}
	if v, ok := fileCfg["developer_token"].(string); ok && v != "" {
		cfg.DeveloperToken = v
		cfg.Sources["developer_token"] = string(source)
	}
	if v := getStringOrNumber(fileCfg, "customer_id"); v != "" {
		cfg.CustomerID = v
		cfg.Sources["customer_id"] = string(source)
	}
	if v := getStringOrNumber(fileCfg, "login_customer_id"); v != "" {
		cfg.LoginCustomerID = v
		cfg.Sources["login_customer_id"] = string(source)
	}
	if v, ok := fileCfg["credential_backend"].(string); ok && v != "" {
		cfg.CredentialBackend = v
		cfg.Sources["credential_backend"] = string(source)
	}
	if v, ok := fileCfg["skew_seconds"].(float64); ok && v >= 0 {
		cfg.SkewSeconds = int(v)
		cfg.Sources["skew_seconds"] = string(source)
	}
	if v, ok := fileCfg["auth_wait_seconds"].(float64); ok && v > 0 {
		cfg.AuthWaitSeconds = int(v)
		cfg.Sources["auth_wait_seconds"] = string(source)
	}
	if v, ok := fileCfg["format"].(string); ok && v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(source)
	}
	if v, ok := fileCfg["hints"].(bool); ok {
		cfg.Hints = &v
		cfg.Sources["hints"] = string(source)
	}
	if v, ok := fileCfg["stats"].(bool); ok {
		cfg.Stats = &v
		cfg.Sources["stats"] = string(source)
	}
	if v, ok := fileCfg["verbose"]; ok {
		if fv, ok := v.(float64); ok {
			iv := int(fv)
			if iv >= 0 && iv <= 2 && fv == float64(iv) {
				cfg.Verbose = &iv
				cfg.Sources["verbose"] = string(source)
			}
		}
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("ADSCTL_OAUTH_BASE_URL"); v != "" {
		cfg.OAuthBaseURL = v
		cfg.Sources["oauth_base_url"] = string(SourceEnv)
	}
	if v := os.Getenv("ADSCTL_ADS_BASE_URL"); v != "" {
		cfg.AdsBaseURL = v
		cfg.Sources["ads_base_url"] = string(SourceEnv)
	}
	if v := os.Getenv("ADSCTL_API_VERSION"); v != "" {
		cfg.APIVersion = v
		cfg.Sources["api_version"] = string(SourceEnv)
	}
	// GOOGLE_ADS_DEVELOPER_TOKEN matches the ecosystem convention; the
	// ADSCTL_ variant wins when both are set.
	if v := os.Getenv("GOOGLE_ADS_DEVELOPER_TOKEN"); v != "" {
		cfg.DeveloperToken = v
		cfg.Sources["developer_token"] = string(SourceEnv)
	}
	if v := os.Getenv("ADSCTL_DEVELOPER_TOKEN"); v != "" {
		cfg.DeveloperToken = v
		cfg.Sources["developer_token"] = string(SourceEnv)
	}
	if v := os.Getenv("ADSCTL_CUSTOMER_ID"); v != "" {
		cfg.CustomerID = v
		cfg.Sources["customer_id"] = string(SourceEnv)
	}
	if v := os.Getenv("ADSCTL_LOGIN_CUSTOMER_ID"); v != "" {
		cfg.LoginCustomerID = v
		cfg.Sources["login_customer_id"] = string(SourceEnv)
	}
	if v := os.Getenv("ADSCTL_CREDENTIAL_FILE"); v != "" {
		cfg.CredentialFile = v
		cfg.Sources["credential_file"] = string(SourceEnv)
	}
	if v := os.Getenv("ADSCTL_CREDENTIAL_BACKEND"); v != "" {
		cfg.CredentialBackend = v
		cfg.Sources["credential_backend"] = string(SourceEnv)
	}
	if v := os.Getenv("ADSCTL_FORMAT"); v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(SourceEnv)
	}
	if v := os.Getenv("ADSCTL_HINTS"); v != "" {
		if b, ok := parseEnvBool(v); ok {
			cfg.Hints = &b
			cfg.Sources["hints"] = string(SourceEnv)
		}
	}
	if v := os.Getenv("ADSCTL_STATS"); v != "" {
		if b, ok := parseEnvBool(v); ok {
			cfg.Stats = &b
			cfg.Sources["stats"] = string(SourceEnv)
		}
	}
}

// parseEnvBool parses a boolean environment variable strictly. Unrecognized
// values are ignored to preserve three-state pointer semantics.
func parseEnvBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}

// getStringOrNumber extracts a value that may be either a string or number in JSON.
func getStringOrNumber(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON numbers are unmarshaled as float64
		return fmt.Sprintf("%.0f", val)
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	default:
		return ""
	}
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	if o.CustomerID != "" {
		cfg.CustomerID = o.CustomerID
		cfg.Sources["customer_id"] = string(SourceFlag)
	}
	if o.LoginCustomerID != "" {
		cfg.LoginCustomerID = o.LoginCustomerID
		cfg.Sources["login_customer_id"] = string(SourceFlag)
	}
	if o.DeveloperToken != "" {
		cfg.DeveloperToken = o.DeveloperToken
		cfg.Sources["developer_token"] = string(SourceFlag)
	}
	if o.CredentialFile != "" {
		cfg.CredentialFile = o.CredentialFile
		cfg.Sources["credential_file"] = string(SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
}

// Path helpers

// LocalConfigDir is the per-directory config location, relative to CWD.
const LocalConfigDir = ".adsctl"

func systemConfigPath() string {
	return "/etc/adsctl/config.json"
}

func globalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.json")
}

// localConfigPath returns the per-directory config. Only the current working
// directory is consulted; parents are not traversed.
func localConfigPath() string {
	dir, err := os.Getwd()
	if err != nil {
		return "" // fail closed: can't determine CWD
	}
	return filepath.Join(dir, LocalConfigDir, "config.json")
}

// GlobalConfigDir returns the global config directory path.
func GlobalConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "adsctl")
}

// NormalizeBaseURL ensures consistent URL format (no trailing slash).
func NormalizeBaseURL(url string) string {
	return strings.TrimSuffix(url, "/")
}
