package cmd

import (
	"github.com/spf13/cobra"

	"github.com/isdelr/bookfeed-be/internal/seed"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace all data with the sample dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			_, err = seed.Run(cmd.Context(), s)
			return err
		},
	}
}
