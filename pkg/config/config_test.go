package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "MODLOADER_TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "MODLOADER_TEST_VAR_NOT_SET",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"true", "true", false, true},
		{"one", "1", false, true},
		{"upper case", "TRUE", false, true},
		{"false", "false", true, false},
		{"zero", "0", true, false},
		{"invalid keeps default", "maybe", true, true},
		{"unset keeps default", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("MODLOADER_TEST_BOOL", tt.envValue)
			}

			got := getEnvBool("MODLOADER_TEST_BOOL", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("MODLOADER_TEST_LIST", " A.One, ,B.Two ")

	got := getEnvList("MODLOADER_TEST_LIST", nil)
	want := []string{"A.One", "B.Two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("getEnvList() = %v, want %v", got, want)
	}

	def := []string{"X"}
	if got := getEnvList("MODLOADER_TEST_LIST_UNSET", def); !reflect.DeepEqual(got, def) {
		t.Errorf("getEnvList() = %v, want default %v", got, def)
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Resolver.AttributeKey != "GameVersion" {
		t.Errorf("AttributeKey = %q, want GameVersion", cfg.Resolver.AttributeKey)
	}
	if cfg.Resolver.Linker != LinkerPlugin {
		t.Errorf("Linker = %q, want %q", cfg.Resolver.Linker, LinkerPlugin)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modloader.yaml")
	content := `
resolver:
  dir: /opt/host/mods
  filter: "ModuleLoader.*.xmod"
  relation: revision
  failClosed: true
  linker: static
  order:
    - MyMod.Core
    - MyMod.UI
provision:
  templateDir: /opt/templates
observability:
  logLevel: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Resolver.Dir != "/opt/host/mods" {
		t.Errorf("Dir = %q", cfg.Resolver.Dir)
	}
	if cfg.Resolver.Filter != "ModuleLoader.*.xmod" {
		t.Errorf("Filter = %q", cfg.Resolver.Filter)
	}
	if !cfg.Resolver.FailClosed {
		t.Error("FailClosed = false, want true")
	}
	if cfg.Resolver.Linker != LinkerStatic {
		t.Errorf("Linker = %q", cfg.Resolver.Linker)
	}
	if want := []string{"MyMod.Core", "MyMod.UI"}; !reflect.DeepEqual(cfg.Resolver.Order, want) {
		t.Errorf("Order = %v, want %v", cfg.Resolver.Order, want)
	}
	// unset keys keep their defaults
	if cfg.Resolver.AttributeKey != "GameVersion" {
		t.Errorf("AttributeKey = %q, want default", cfg.Resolver.AttributeKey)
	}
	if cfg.Provision.TemplateName != "ModuleLoader.xmod" {
		t.Errorf("TemplateName = %q, want default", cfg.Provision.TemplateName)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.Observability.LogLevel)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modloader.yaml")
	if err := os.WriteFile(path, []byte("resolver:\n  filter: \"*.xmod\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MODLOADER_FILTER", "Other.*.xmod")
	t.Setenv("MODLOADER_ORDER", "A.B,C.D")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Resolver.Filter != "Other.*.xmod" {
		t.Errorf("Filter = %q, want env override", cfg.Resolver.Filter)
	}
	if want := []string{"A.B", "C.D"}; !reflect.DeepEqual(cfg.Resolver.Order, want) {
		t.Errorf("Order = %v, want %v", cfg.Resolver.Order, want)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("Load() expected error for missing file")
		}
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("resolver: [unterminated"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Load() expected parse error")
		}
	})

	t.Run("invalid after env", func(t *testing.T) {
		t.Setenv("MODLOADER_LINKER", "dlopen")
		_, err := Load("")
		if err == nil || !strings.Contains(err.Error(), "invalid linker") {
			t.Errorf("Load() error = %v, want invalid linker", err)
		}
	})
}

func TestLoadConfig_UsesEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modloader.yaml")
	if err := os.WriteFile(path, []byte("resolver:\n  contract: Game.Extension\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MODLOADER_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Resolver.Contract != "Game.Extension" {
		t.Errorf("Contract = %q", cfg.Resolver.Contract)
	}
}

// TestValidate tests configuration validation
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty filter", func(c *Config) { c.Resolver.Filter = "" }, "filter is required"},
		{"bad filter", func(c *Config) { c.Resolver.Filter = "[" }, "invalid resolver filter"},
		{"empty attribute key", func(c *Config) { c.Resolver.AttributeKey = "" }, "attribute key"},
		{"empty contract", func(c *Config) { c.Resolver.Contract = "" }, "contract"},
		{"bad relation", func(c *Config) { c.Resolver.Relation = "not a constraint" }, "constraint"},
		{"constraint relation", func(c *Config) { c.Resolver.Relation = "~{major}.{minor}" }, ""},
		{"unknown linker", func(c *Config) { c.Resolver.Linker = "dlopen" }, "invalid linker"},
		{"plugin without cache", func(c *Config) { c.Resolver.PluginCacheDir = "" }, "cache directory"},
		{"static without cache", func(c *Config) {
			c.Resolver.Linker = LinkerStatic
			c.Resolver.PluginCacheDir = ""
		}, ""},
		{"empty template", func(c *Config) { c.Provision.TemplateName = "" }, "template name"},
		{"empty type name", func(c *Config) { c.Provision.TypeName = "" }, "type name"},
		{"otel without endpoint", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = ""
		}, "endpoint"},
		{"otel without service", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelServiceName = ""
		}, "service name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCompatibilityRelation(t *testing.T) {
	cfg := Default()
	rel, err := cfg.Resolver.CompatibilityRelation()
	if err != nil {
		t.Fatal(err)
	}
	if rel == nil {
		t.Fatal("CompatibilityRelation() returned nil")
	}
}
