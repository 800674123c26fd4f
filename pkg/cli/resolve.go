package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/modloader/pkg/image"
	"github.com/platinummonkey/modloader/pkg/loader"
	"github.com/platinummonkey/modloader/pkg/metadata"
	"github.com/platinummonkey/modloader/pkg/selector"
	"github.com/platinummonkey/modloader/pkg/version"
)

// ErrNoSelection is returned when resolve finds no image to load
var ErrNoSelection = errors.New("no candidate selected")

func newResolveCmd(a *app) *cobra.Command {
	var (
		dir         string
		hostVersion string
		exclude     []string
		link        bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show which candidate image the resolver would load",
		Long: `Scan a candidate directory, read the version tag of every image and
select the one the runtime resolver would load for the given host version.
Implementation types are listed from the winner's metadata. With --link the
winner is linked with the configured linker and each constructor symbol is
looked up; nothing is constructed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := loader.OptionsFromConfig(a.cfg.Resolver, a.logger, a.metrics)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = opts.Dir
			}
			if dir == "" {
				return errors.New("no candidate directory: set --dir or resolver.dir")
			}
			running, err := version.ParseTag(hostVersion)
			if err != nil {
				return fmt.Errorf("invalid host version: %w", err)
			}
			relation := opts.Policy.Relation

			files, err := loader.ScanDirectory(dir, opts.Filter, exclude)
			if err != nil {
				return err
			}
			scanner := metadata.NewScanner(opts.AttributeKey, opts.Logger, opts.Metrics)
			candidates := scanner.Scan(files)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "host version: %s\n", running)
			fmt.Fprintf(out, "directory:    %s (%d files, %d tagged)\n", dir, len(files), len(candidates))

			sorted := append([]selector.Candidate(nil), candidates...)
			selector.Sort(sorted)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CANDIDATE\tVERSION\tCOMPATIBLE")
			for i := len(sorted) - 1; i >= 0; i-- {
				c := sorted[i]
				compatible := "no"
				if relation(running, c.Tag) {
					compatible = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", filepath.Base(c.Path), c.Tag, compatible)
			}
			_ = w.Flush()

			winner, outcome, ok := selector.Select(candidates, running, opts.Policy)
			if !ok {
				fmt.Fprintf(out, "selected:     none (%s)\n", outcome)
				return fmt.Errorf("%w: %s", ErrNoSelection, outcome)
			}
			fmt.Fprintf(out, "selected:     %s (%s)\n", filepath.Base(winner.Path), outcome)

			img, err := image.ReadFile(winner.Path)
			if err != nil {
				return err
			}
			types := declaredTypes(img, opts.Contract, opts.Order)
			if len(types) == 0 {
				fmt.Fprintf(out, "types:        none implementing %s\n", opts.Contract)
				return nil
			}

			var syms loader.Symbols
			if link {
				if syms, err = opts.Linker.Link(img, winner.Path); err != nil {
					return fmt.Errorf("%w: %s: %w", loader.ErrLoadFailed, winner.Path, err)
				}
			}

			fmt.Fprintln(out, "types:")
			var unresolved int
			for _, t := range types {
				if syms == nil {
					fmt.Fprintf(out, "  %s\n", t.FullName())
					continue
				}
				status := "ok"
				if t.Constructor == "" {
					status = loader.SkipNoConstructor
					unresolved++
				} else if _, err := syms.Lookup(t.Constructor); err != nil {
					status = err.Error()
					unresolved++
				}
				fmt.Fprintf(out, "  %s (%s: %s)\n", t.FullName(), dash(t.Constructor), status)
			}
			if unresolved > 0 {
				return fmt.Errorf("%d of %d implementation types cannot be constructed", unresolved, len(types))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Candidate directory (default from config)")
	cmd.Flags().StringVar(&hostVersion, "host-version", "", "Version tag of the running host")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Base names, without extension, of images to leave out")
	cmd.Flags().BoolVar(&link, "link", false, "Link the winner and check its constructor symbols")
	_ = cmd.MarkFlagRequired("host-version")

	return cmd
}

// declaredTypes lists the concrete implementation types of img in
// instantiation order
func declaredTypes(img *image.Image, contract string, order []string) []image.TypeDef {
	var instances []loader.Instance[image.TypeDef]
	for i, t := range img.Types {
		if t.IsConcrete() && img.InheritsFrom(i, contract) {
			instances = append(instances, loader.Instance[image.TypeDef]{TypeName: t.FullName(), Value: t})
		}
	}
	return loader.Values(loader.Order(instances, order))
}
