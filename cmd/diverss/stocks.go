package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tenlabs01/Diverss/internal/app"
	"github.com/tenlabs01/Diverss/internal/orchestrator"
	"github.com/tenlabs01/Diverss/internal/portfolio"
)

func newStocksCmd(opts *cliOptions) *cobra.Command {
	var parallel bool

	cmd := &cobra.Command{
		Use:   "stocks [holdings.csv]",
		Short: "Rate each holding from Strong Hold/Add to Exit",
		Long: `Analyze a holdings CSV (Symbol,Quantity,AvgPrice,LTP) in batches and print
the merged result as JSON. Reads stdin when no file is given. Progress goes to
stderr; Ctrl-C stops after the current batch and prints what completed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			items, err := portfolio.ParseCSV(in)
			if err != nil {
				return err
			}

			cfg, logger, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			stack, err := app.NewStack(cfg, logger, nil)
			if err != nil {
				return err
			}
			if stack.Orchestrator == nil {
				return errors.New("upstream API key is not set")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			run := func(ctx context.Context) (any, error) {
				if parallel {
					return stack.Orchestrator.RunParallel(ctx, items)
				}
				return stack.Orchestrator.RunSequential(ctx, items, progressPrinter(cmd.ErrOrStderr()))
			}

			result, runErr := run(ctx)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Run batches concurrently instead of one at a time")
	return cmd
}

func progressPrinter(w io.Writer) orchestrator.Observer {
	return orchestrator.ObserverFunc(func(e orchestrator.Event) {
		switch e.Type {
		case orchestrator.EventRunStarted:
			fmt.Fprintf(w, "Analyzing %d stocks in %d batches\n", e.TotalItems, e.TotalBatches)
		case orchestrator.EventBatchCompleted:
			fmt.Fprintf(w, "Batch %d/%d done (%d/%d stocks)\n", e.BatchIndex+1, e.TotalBatches, e.CompletedItems, e.TotalItems)
		case orchestrator.EventRateLimited:
			fmt.Fprintln(w, e.Message)
		case orchestrator.EventRunAborted, orchestrator.EventRunFailed:
			fmt.Fprintln(w, e.Message)
		}
	})
}
