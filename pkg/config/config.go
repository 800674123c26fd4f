package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/modloader/pkg/version"
)

// Linker backends
const (
	LinkerPlugin = "plugin"
	LinkerStatic = "static"
)

// Config holds all application configuration
type Config struct {
	// Runtime resolution
	Resolver ResolverConfig `yaml:"resolver"`

	// Build-time provisioning
	Provision ProvisionConfig `yaml:"provision"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ResolverConfig holds the runtime resolver settings
type ResolverConfig struct {
	// Dir is the directory scanned for candidates. Empty means the
	// directory of the host module image.
	Dir string `yaml:"dir"`
	// Filter is the glob applied to candidate base names
	Filter string `yaml:"filter"`
	// Order lists fully qualified type names in instantiation order
	Order []string `yaml:"order"`
	// AttributeKey is the assembly metadata key carrying the version tag
	AttributeKey string `yaml:"attributeKey"`
	// Contract is the fully qualified name of the extension base type
	Contract string `yaml:"contract"`
	// Relation is "release-line", "revision" or a semver constraint pattern
	Relation string `yaml:"relation"`
	// FailClosed disables the fallback to the latest incompatible candidate
	FailClosed bool `yaml:"failClosed"`
	// Linker selects the backend: "plugin" or "static"
	Linker string `yaml:"linker"`
	// PluginCacheDir receives materialized plugin payloads
	PluginCacheDir string `yaml:"pluginCacheDir"`
}

// ProvisionConfig holds the build-time provisioning settings
type ProvisionConfig struct {
	// TemplateDir holds the template image and its debug companion
	TemplateDir string `yaml:"templateDir"`
	// TemplateName is the template image file name
	TemplateName string `yaml:"templateName"`
	// TypeName is the fully qualified name of the type renamed per module
	TypeName string `yaml:"typeName"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	// Metrics
	MetricsEnabled bool `yaml:"metricsEnabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otelEnabled"`
	OTelEndpoint       string `yaml:"otelEndpoint"`
	OTelServiceName    string `yaml:"otelServiceName"`
	OTelServiceVersion string `yaml:"otelServiceVersion"`
	OTelInsecure       bool   `yaml:"otelInsecure"` // Use insecure gRPC connection
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Resolver: ResolverConfig{
			Filter:         "*.xmod",
			AttributeKey:   "GameVersion",
			Contract:       "ModuleLoader.SubModule",
			Relation:       "release-line",
			Linker:         LinkerPlugin,
			PluginCacheDir: filepath.Join(os.TempDir(), "modloader-plugins"),
		},
		Provision: ProvisionConfig{
			TemplateDir:  "templates",
			TemplateName: "ModuleLoader.xmod",
			TypeName:     "ModuleLoader.SubModule",
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			LogFormat:          "text",
			MetricsEnabled:     false,
			OTelEnabled:        false,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "modloader",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// LoadConfig loads configuration from the file named by MODLOADER_CONFIG, if
// any, and environment variables
func LoadConfig() (*Config, error) {
	return Load(getEnv("MODLOADER_CONFIG", ""))
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides settings from MODLOADER_* environment variables
func applyEnv(cfg *Config) {
	r := &cfg.Resolver
	r.Dir = getEnv("MODLOADER_DIR", r.Dir)
	r.Filter = getEnv("MODLOADER_FILTER", r.Filter)
	r.Order = getEnvList("MODLOADER_ORDER", r.Order)
	r.AttributeKey = getEnv("MODLOADER_ATTRIBUTE_KEY", r.AttributeKey)
	r.Contract = getEnv("MODLOADER_CONTRACT", r.Contract)
	r.Relation = getEnv("MODLOADER_RELATION", r.Relation)
	r.FailClosed = getEnvBool("MODLOADER_FAIL_CLOSED", r.FailClosed)
	r.Linker = getEnv("MODLOADER_LINKER", r.Linker)
	r.PluginCacheDir = getEnv("MODLOADER_PLUGIN_CACHE_DIR", r.PluginCacheDir)

	p := &cfg.Provision
	p.TemplateDir = getEnv("MODLOADER_TEMPLATE_DIR", p.TemplateDir)
	p.TemplateName = getEnv("MODLOADER_TEMPLATE_NAME", p.TemplateName)
	p.TypeName = getEnv("MODLOADER_TYPE_NAME", p.TypeName)

	o := &cfg.Observability
	o.LogLevel = getEnv("MODLOADER_LOG_LEVEL", o.LogLevel)
	o.LogFormat = getEnv("MODLOADER_LOG_FORMAT", o.LogFormat)
	o.MetricsEnabled = getEnvBool("MODLOADER_METRICS_ENABLED", o.MetricsEnabled)
	o.OTelEnabled = getEnvBool("MODLOADER_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("MODLOADER_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("MODLOADER_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("MODLOADER_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("MODLOADER_OTEL_INSECURE", o.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate resolver config
	if c.Resolver.Filter == "" {
		return errors.New("resolver filter is required")
	}
	if _, err := filepath.Match(c.Resolver.Filter, ""); err != nil {
		return fmt.Errorf("invalid resolver filter %q: %w", c.Resolver.Filter, err)
	}
	if c.Resolver.AttributeKey == "" {
		return errors.New("resolver attribute key is required")
	}
	if c.Resolver.Contract == "" {
		return errors.New("resolver contract type is required")
	}
	if _, err := version.RelationByName(c.Resolver.Relation); err != nil {
		return err
	}
	switch c.Resolver.Linker {
	case LinkerPlugin:
		if c.Resolver.PluginCacheDir == "" {
			return errors.New("plugin cache directory is required for the plugin linker")
		}
	case LinkerStatic:
	default:
		return fmt.Errorf("invalid linker: %s (must be plugin or static)", c.Resolver.Linker)
	}

	// Validate provision config
	if c.Provision.TemplateName == "" {
		return errors.New("template name is required")
	}
	if c.Provision.TypeName == "" {
		return errors.New("provisioned type name is required")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return errors.New("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return errors.New("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// CompatibilityRelation returns the relation named by the configuration
func (r ResolverConfig) CompatibilityRelation() (version.Relation, error) {
	return version.RelationByName(r.Relation)
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
