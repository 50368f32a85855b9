package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/loginrotate/internal/config"
	dserrors "github.com/systmms/loginrotate/internal/errors"
	"github.com/systmms/loginrotate/pkg/password"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(cfg *config.Config) *cobra.Command {
	var (
		length        int
		count         int
		legacyShuffle bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print random passwords without touching any database",
		Long: `Print passwords built the same way rotate builds them: at least one
upper-case letter, lower-case letter, digit and special character, with
easily confused characters (I, O, l, 0, 1) left out.

Examples:
  loginrotate generate
  loginrotate generate --length 24 --count 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return dserrors.UserError{
					Message:    "Invalid count",
					Suggestion: "Count must be at least 1",
				}
			}

			var opts []password.Option
			if legacyShuffle {
				opts = append(opts, password.WithLegacyShuffle())
			}
			gen := password.New(opts...)

			for i := 0; i < count; i++ {
				pw, err := gen.Generate(length)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), pw)
			}
			if cfg.Logger != nil {
				cfg.Logger.Debug("Generated %d password(s) of length %d", count, length)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&length, "length", "l", password.DefaultLength, "Password length (minimum 4)")
	cmd.Flags().IntVarP(&count, "count", "c", 1, "Number of passwords to print")
	cmd.Flags().BoolVar(&legacyShuffle, "legacy-shuffle", false, "Shuffle with the selection bytes instead of fresh randomness")

	return cmd
}
