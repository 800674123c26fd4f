// Package config loads modloader configuration from a YAML file and
// environment variables.
//
// # Overview
//
// Defaults cover every setting; a YAML file (MODLOADER_CONFIG or an explicit
// path) is read over them and MODLOADER_* environment variables win last.
//
// # Configuration File
//
//	resolver:
//	  dir: /opt/host/Modules/MyMod/bin
//	  filter: "ModuleLoader.*.xmod"
//	  attributeKey: GameVersion
//	  contract: ModuleLoader.SubModule
//	  relation: release-line     # revision, or a constraint like "~{major}.{minor}"
//	  failClosed: false
//	  linker: plugin             # plugin or static
//	  order:
//	    - MyMod.Core
//	    - MyMod.UI
//	provision:
//	  templateDir: templates
//	  templateName: ModuleLoader.xmod
//	  typeName: ModuleLoader.SubModule
//	observability:
//	  logLevel: info
//	  logFormat: text
//
// # Environment Variables
//
//	MODLOADER_DIR, MODLOADER_FILTER, MODLOADER_ORDER (comma separated)
//	MODLOADER_ATTRIBUTE_KEY, MODLOADER_CONTRACT, MODLOADER_RELATION
//	MODLOADER_FAIL_CLOSED, MODLOADER_LINKER, MODLOADER_PLUGIN_CACHE_DIR
//	MODLOADER_TEMPLATE_DIR, MODLOADER_TEMPLATE_NAME, MODLOADER_TYPE_NAME
//	MODLOADER_LOG_LEVEL, MODLOADER_LOG_FORMAT, MODLOADER_METRICS_ENABLED
//	MODLOADER_OTEL_ENABLED, MODLOADER_OTEL_ENDPOINT, MODLOADER_OTEL_INSECURE
//	MODLOADER_OTEL_SERVICE_NAME, MODLOADER_OTEL_SERVICE_VERSION
//
// # Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	relation, _ := cfg.Resolver.CompatibilityRelation()
package config
