package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/mindstats/internal/app"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the analytics pipeline once and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			req, err := periodRequest(start, end)
			if err != nil {
				return err
			}

			store, err := openStore(ctx, root.cfg)
			if err != nil {
				return err
			}
			svc, err := newService(ctx, root.cfg, store)
			if err != nil {
				_ = store.Close()
				return err
			}
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			res, err := svc.Generate(ctx, req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "period start (RFC3339); defaults to the configured window")
	cmd.Flags().StringVar(&end, "end", "", "period end (RFC3339); defaults to now")
	return cmd
}

// periodRequest parses optional RFC3339 bounds.
func periodRequest(start, end string) (service.Request, error) {
	var req service.Request
	for _, b := range []struct {
		raw string
		dst **time.Time
	}{{start, &req.PeriodStart}, {end, &req.PeriodEnd}} {
		if b.raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, b.raw)
		if err != nil {
			return service.Request{}, fmt.Errorf("invalid period bound %q: %w", b.raw, err)
		}
		*b.dst = &t
	}
	return req, nil
}
