package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/mindstats/internal/seeddata"
	"github.com/okian/mindstats/pkg/logger"
)

func newSeedCmd(root *rootOptions) *cobra.Command {
	cfg := seeddata.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write deterministic synthetic records into the configured store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx, root.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			batch := seeddata.Generate(cfg)
			if err := seeddata.Write(ctx, store, batch); err != nil {
				return err
			}

			counts := batch.Counts()
			fields := make([]logger.Field, 0, len(counts))
			for family, n := range counts {
				fields = append(fields, logger.Int(string(family), n))
			}
			logger.Get().Info(ctx, "seed records written", fields...)
			return nil
		},
	}

	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	cmd.Flags().IntVar(&cfg.Students, "students", cfg.Students, "number of students")
	cmd.Flags().IntVar(&cfg.Counsellors, "counsellors", cfg.Counsellors, "number of counsellors")
	cmd.Flags().IntVar(&cfg.ManualReports, "manual-reports", cfg.ManualReports, "number of counsellor reports")
	cmd.Flags().IntVar(&cfg.GeneratedReports, "generated-reports", cfg.GeneratedReports, "number of generated reports")
	cmd.Flags().IntVar(&cfg.CheckInsPerStudent, "check-ins", cfg.CheckInsPerStudent, "check-ins per student")
	cmd.Flags().DurationVar(&cfg.Span, "span", cfg.Span, "how far back records are spread")
	return cmd
}
