package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/modloader/pkg/image"
	"github.com/platinummonkey/modloader/pkg/version"
)

func newStampCmd(a *app) *cobra.Command {
	var (
		key    string
		value  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "stamp <image>",
		Short: "Set an assembly metadata value on a module image",
		Long: `Set an assembly metadata key on a module image, replacing the existing
value if there is one. When the key is the version attribute key the value
must be a valid version tag. The image is rewritten in place unless --output
is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				key = a.cfg.Resolver.AttributeKey
			}
			if key == a.cfg.Resolver.AttributeKey {
				tag, err := version.ParseTag(value)
				if err != nil {
					return fmt.Errorf("invalid %s value: %w", key, err)
				}
				value = tag.String()
			}
			if value == "" {
				return errors.New("empty metadata value")
			}

			path := args[0]
			img, err := image.ReadFile(path)
			if err != nil {
				return err
			}
			if err := img.SetAssemblyMetadata(key, value); err != nil {
				return err
			}
			data, err := image.Encode(img)
			if err != nil {
				return err
			}

			if output == "" {
				output = path
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write image: %w", err)
			}

			a.logger.WithField("path", output).Debugf("Stamped %s = %s", key, value)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s = %s (build id %s)\n", output, key, value, image.ComputeBuildID(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Metadata key (default: the version attribute key)")
	cmd.Flags().StringVar(&value, "value", "", "Metadata value")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the stamped image here instead of in place")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}
