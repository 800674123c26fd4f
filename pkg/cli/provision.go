package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/modloader/pkg/provision"
)

func newProvisionCmd(a *app) *cobra.Command {
	var (
		flagInputs   provision.Inputs
		properties   string
		templateDir  string
		templateName string
		typeName     string
		watch        bool
		delay        time.Duration
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Write the per-module copy of the template image",
		Long: `Copy the template image into the build output, renaming its well-known
type after the module so each module carries a distinct implementation type.

Inputs come from a YAML build property file and flags; flags win. Missing
inputs skip the run. Failures are reported as diagnostics and only fail the
command with --strict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := flagInputs
			if properties != "" {
				fileInputs, err := readInputs(properties)
				if err != nil {
					return err
				}
				in = mergeInputs(fileInputs, flagInputs)
			}

			cfg := a.cfg.Provision
			if templateDir == "" {
				templateDir = cfg.TemplateDir
			}
			if templateName == "" {
				templateName = cfg.TemplateName
			}
			if typeName == "" {
				typeName = cfg.TypeName
			}

			out := cmd.OutOrStdout()
			p := provision.NewPipeline(provision.Options{
				Templates:    os.DirFS(templateDir),
				TemplateName: templateName,
				TypeName:     typeName,
				Reporter: provision.ReporterFunc(func(d provision.Diagnostic) {
					fmt.Fprintln(out, d.String())
				}),
				Logger:  a.logger,
				Metrics: a.metrics,
			})

			if watch {
				return p.Watch(cmd.Context(), templateDir, in, delay, func(res provision.Result) {
					for _, f := range res.Files {
						a.logger.Infof("Wrote %s", f)
					}
				})
			}

			res := p.Run(cmd.Context(), in)
			for _, f := range res.Files {
				fmt.Fprintln(out, f)
			}
			if strict && res.Status == provision.StatusFailed {
				return res.Err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&flagInputs.OutputPath, "output-path", "", "Build output directory, relative to the project directory")
	flags.StringVar(&flagInputs.ProjectFilePath, "project", "", "Path of the project file")
	flags.StringVar(&flagInputs.ModuleID, "module-id", "", "Module identifier")
	flags.StringVar(&flagInputs.ModuleName, "module-name", "", "Module name, used when --module-id is empty")
	flags.StringVar(&flagInputs.ProjectName, "project-name", "", "Project name, used when no module identifier is set")
	flags.StringVar(&properties, "properties", "", "YAML file of build properties")
	flags.StringVar(&templateDir, "templates", "", "Directory holding the template image (default from config)")
	flags.StringVar(&templateName, "template-name", "", "Template image file name (default from config)")
	flags.StringVar(&typeName, "type-name", "", "Full name of the type renamed per module (default from config)")
	flags.BoolVar(&watch, "watch", false, "Regenerate whenever the template changes")
	flags.DurationVar(&delay, "delay", provision.DefaultWatchDelay, "Debounce delay for --watch")
	flags.BoolVar(&strict, "strict", false, "Exit non-zero when generation fails")

	return cmd
}

func readInputs(path string) (provision.Inputs, error) {
	f, err := os.Open(path)
	if err != nil {
		return provision.Inputs{}, fmt.Errorf("failed to open build properties: %w", err)
	}
	defer f.Close()

	props, err := provision.ReadProperties(f)
	if err != nil {
		return provision.Inputs{}, err
	}
	return provision.InputsFromProperties(props), nil
}

// mergeInputs overlays the non-empty fields of override on base
func mergeInputs(base, override provision.Inputs) provision.Inputs {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&base.OutputPath, override.OutputPath)
	pick(&base.ProjectFilePath, override.ProjectFilePath)
	pick(&base.ModuleID, override.ModuleID)
	pick(&base.ModuleName, override.ModuleName)
	pick(&base.ProjectName, override.ProjectName)
	return base
}
