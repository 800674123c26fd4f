package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/modloader/pkg/image"
)

type imageReport struct {
	Path         string          `yaml:"path"`
	Module       string          `yaml:"module"`
	Format       uint16          `yaml:"format"`
	BuildID      string          `yaml:"buildId"`
	BuildIDValid bool            `yaml:"buildIdValid"`
	Flags        uint32          `yaml:"flags"`
	Sections     []sectionReport `yaml:"sections"`
	Metadata     []metadataPair  `yaml:"metadata,omitempty"`
	Types        []typeReport    `yaml:"types,omitempty"`
}

type sectionReport struct {
	Name   string `yaml:"name"`
	Offset uint64 `yaml:"offset"`
	Size   uint64 `yaml:"size"`
}

type metadataPair struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

type typeReport struct {
	Name        string `yaml:"name"`
	Extends     string `yaml:"extends,omitempty"`
	Constructor string `yaml:"constructor,omitempty"`
	Concrete    bool   `yaml:"concrete"`
	Implements  bool   `yaml:"implements"`
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		format   string
		contract string
		jobs     int
	)

	cmd := &cobra.Command{
		Use:   "inspect <image>...",
		Short: "Print the header, sections, metadata and types of module images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "yaml" {
				return fmt.Errorf("invalid format: %s (must be text or yaml)", format)
			}
			if contract == "" {
				contract = a.cfg.Resolver.Contract
			}
			if jobs < 1 {
				jobs = 1
			}

			reports := make([]imageReport, len(args))
			eg, ctx := errgroup.WithContext(cmd.Context())
			eg.SetLimit(jobs)
			for i, path := range args {
				eg.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					report, err := inspectImage(path, contract)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					reports[i] = report
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "yaml" {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(reports); err != nil {
					return err
				}
				return enc.Close()
			}
			for i, r := range reports {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printImageReport(out, r)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format: text or yaml")
	cmd.Flags().StringVar(&contract, "contract", "", "Full name of the extension base type (default from config)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Number of images inspected in parallel")

	return cmd
}

func inspectImage(path, contract string) (imageReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return imageReport{}, err
	}
	r, err := image.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return imageReport{}, err
	}
	img, err := r.Image()
	if err != nil {
		return imageReport{}, err
	}

	hdr := r.Header()
	report := imageReport{
		Path:         path,
		Module:       img.Name,
		Format:       hdr.Format,
		BuildID:      hdr.BuildID.String(),
		BuildIDValid: image.VerifyBuildID(data),
		Flags:        hdr.Flags,
	}
	for _, sh := range r.Sections() {
		report.Sections = append(report.Sections, sectionReport{Name: sh.Name, Offset: sh.Offset, Size: sh.Size})
	}
	for _, kv := range img.AssemblyMetadata() {
		report.Metadata = append(report.Metadata, metadataPair{Key: kv[0], Value: kv[1]})
	}
	for i, t := range img.Types {
		extends, _ := img.TypeName(t.Extends)
		report.Types = append(report.Types, typeReport{
			Name:        t.FullName(),
			Extends:     extends,
			Constructor: t.Constructor,
			Concrete:    t.IsConcrete(),
			Implements:  img.InheritsFrom(i, contract),
		})
	}
	return report, nil
}

func printImageReport(out io.Writer, r imageReport) {
	valid := "ok"
	if !r.BuildIDValid {
		valid = "MISMATCH"
	}
	fmt.Fprintf(out, "%s\n", r.Path)
	fmt.Fprintf(out, "  module:   %s\n", r.Module)
	fmt.Fprintf(out, "  format:   %d\n", r.Format)
	fmt.Fprintf(out, "  build id: %s (%s)\n", r.BuildID, valid)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  SECTION\tOFFSET\tSIZE")
	for _, s := range r.Sections {
		fmt.Fprintf(w, "  %s\t%d\t%d\n", s.Name, s.Offset, s.Size)
	}
	_ = w.Flush()

	if len(r.Metadata) > 0 {
		fmt.Fprintln(out, "  metadata:")
		for _, kv := range r.Metadata {
			fmt.Fprintf(out, "    %s = %s\n", kv.Key, kv.Value)
		}
	}

	if len(r.Types) > 0 {
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  TYPE\tEXTENDS\tCONSTRUCTOR\tIMPLEMENTS")
		for _, t := range r.Types {
			impl := "no"
			switch {
			case t.Implements && t.Concrete:
				impl = "yes"
			case t.Implements:
				impl = "abstract"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.Name, dash(t.Extends), dash(t.Constructor), impl)
		}
		_ = w.Flush()
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
