// Package cli provides the modloader command-line interface.
//
// # Commands
//
// provision: Write the per-module copy of the template image into a build
//
//	modloader provision \
//		--templates ./templates \
//		--project ./MyMod/MyMod.csproj \
//		--output-path bin/Win64 \
//		--module-id MyMod
//
// Build properties can come from a YAML file instead; flags win:
//
//	modloader provision --properties build.yaml
//
// Regenerate on template changes:
//
//	modloader provision --properties build.yaml --watch
//
// inspect: Print header, sections, metadata and types of images
//
//	modloader inspect -o yaml bin/*.xmod
//
// resolve: Dry-run candidate selection for a host version
//
//	modloader resolve --dir ./Modules/MyMod/bin/Win64 --host-version e1.2.3
//
// stamp: Set the version attribute, or any metadata key, on an image
//
//	modloader stamp bin/ModuleLoader.MyMod.xmod --value e1.2.3
//	modloader stamp bin/ModuleLoader.MyMod.xmod --key Author --value someone
//
// sanitize: Print the type name derived from a module name
//
//	modloader sanitize "My Mod"
//
// # Configuration
//
// Settings come from the YAML file named by --config or MODLOADER_CONFIG and
// from MODLOADER_* environment variables. See package config.
package cli
