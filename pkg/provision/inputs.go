package provision

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Build property keys, compared case-insensitively. A "build_property."
// prefix is ignored.
const (
	PropOutputPath      = "outputPath"
	PropProjectFilePath = "projectFilePath"
	PropModuleID        = "moduleId"
	PropModuleName      = "moduleName"
	PropProjectName     = "projectName"
)

// propertyAliases maps lower-cased property names to their canonical key and
// rank. When several names of one key are present the lowest rank wins, so
// the canonical name always beats its aliases.
var propertyAliases = map[string]struct {
	key  string
	rank int
}{
	"outputpath":             {PropOutputPath, 0},
	"projectfilepath":        {PropProjectFilePath, 0},
	"msbuildprojectfullpath": {PropProjectFilePath, 1},
	"moduleid":               {PropModuleID, 0},
	"modulename":             {PropModuleName, 0},
	"projectname":            {PropProjectName, 0},
	"assemblyname":           {PropProjectName, 1},
}

// Inputs are the build properties a provisioning run needs
type Inputs struct {
	// OutputPath is the output directory, relative to the project
	// directory unless absolute
	OutputPath string
	// ProjectFilePath is the path of the project file
	ProjectFilePath string
	// ModuleID names the provisioned image
	ModuleID string
	// ModuleName is used when ModuleID is empty
	ModuleName string
	// ProjectName supplies the module identifier, up to its first '.',
	// when neither ModuleID nor ModuleName is set
	ProjectName string
}

// InputsFromProperties reads inputs from a build property map. The result
// does not depend on map iteration order: a canonical name beats its aliases,
// and among equally ranked spellings the lexically smallest property name
// wins.
func InputsFromProperties(props map[string]string) Inputs {
	type pick struct {
		name  string
		rank  int
		value string
	}
	picked := make(map[string]pick)
	for name, value := range props {
		alias, ok := propertyAliases[strings.TrimPrefix(strings.ToLower(name), "build_property.")]
		if !ok {
			continue
		}
		cur, seen := picked[alias.key]
		if seen && (cur.rank < alias.rank || cur.rank == alias.rank && cur.name < name) {
			continue
		}
		picked[alias.key] = pick{name: name, rank: alias.rank, value: value}
	}

	return Inputs{
		OutputPath:      picked[PropOutputPath].value,
		ProjectFilePath: picked[PropProjectFilePath].value,
		ModuleID:        picked[PropModuleID].value,
		ModuleName:      picked[PropModuleName].value,
		ProjectName:     picked[PropProjectName].value,
	}
}

// ReadProperties parses a YAML mapping of build properties
func ReadProperties(r io.Reader) (map[string]string, error) {
	props := make(map[string]string)
	if err := yaml.NewDecoder(r).Decode(&props); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse build properties: %w", err)
	}
	return props, nil
}

// ResolvedModuleID returns the module identifier after fallbacks
func (in Inputs) ResolvedModuleID() string {
	switch {
	case in.ModuleID != "":
		return in.ModuleID
	case in.ModuleName != "":
		return in.ModuleName
	default:
		first, _, _ := strings.Cut(in.ProjectName, ".")
		return first
	}
}

// Missing returns the names of required inputs that are empty, sorted
func (in Inputs) Missing() []string {
	var missing []string
	if in.OutputPath == "" {
		missing = append(missing, PropOutputPath)
	}
	if in.ProjectFilePath == "" {
		missing = append(missing, PropProjectFilePath)
	}
	if in.ResolvedModuleID() == "" {
		missing = append(missing, PropModuleID)
	}
	sort.Strings(missing)
	return missing
}

// OutputDir resolves the output directory against the project directory
func (in Inputs) OutputDir() string {
	if filepath.IsAbs(in.OutputPath) {
		return filepath.Clean(in.OutputPath)
	}
	return filepath.Join(filepath.Dir(in.ProjectFilePath), in.OutputPath)
}
