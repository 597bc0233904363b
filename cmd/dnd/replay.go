package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dnd/internal/errors"
	"github.com/vango-dev/dnd/internal/scenario"
)

type replayOptions struct {
	json    bool
	watch   bool
	verbose bool
}

func replayCmd() *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a drag and drop scenario",
		Long: `Replay the steps of a scenario file against its controllers and
print every controller event and the final classes of each element.

Expectation steps fail the replay when an element's classes do not match.

Examples:
  dnd replay board.yaml
  dnd replay board.yaml --json
  dnd replay board.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Replay again whenever the file changes")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log controller diagnostics")

	return cmd
}

func runReplay(ctx context.Context, w io.Writer, path string, opts replayOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cliLogger(os.Stderr, opts.verbose)

	if !opts.watch {
		sc, err := scenario.Load(path)
		if err != nil {
			if opts.json {
				writeReplayJSON(w, nil, err)
			}
			return err
		}
		return replayOnce(ctx, w, sc, opts)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates, err := scenario.NewWatcher(path, logger).Watch(ctx)
	if err != nil {
		return err
	}
	if !opts.json {
		info("Watching %s (Ctrl+C to stop)", path)
	}
	for u := range updates {
		err := u.Err
		if err == nil {
			err = replayOnce(ctx, w, u.Scenario, opts)
		} else if opts.json {
			writeReplayJSON(w, nil, err)
		}
		if err != nil && !opts.json {
			errors.Print(os.Stderr, err)
		}
	}
	return nil
}

func replayOnce(ctx context.Context, w io.Writer, sc *scenario.Scenario, opts replayOptions) error {
	res, err := scenario.Run(ctx, sc, cliLogger(os.Stderr, opts.verbose))
	if opts.json {
		writeReplayJSON(w, res, err)
		return err
	}
	writeReplayText(w, sc, res)
	return err
}

type replayOutput struct {
	Result *scenario.Result `json:"result,omitempty"`
	Error  *errors.Error    `json:"error,omitempty"`
}

func writeReplayJSON(w io.Writer, res *scenario.Result, err error) {
	out := replayOutput{Result: res, Error: errors.FromError(err, errors.ScenarioRead)}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

func writeReplayText(w io.Writer, sc *scenario.Scenario, res *scenario.Result) {
	if res == nil {
		return
	}
	name := res.Scenario
	if name == "" {
		name = sc.Path()
	}
	fmt.Fprintf(w, "\033[32m✓\033[0m %s: %d events\n\n", name, len(res.Events))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  STEP\tCONTROLLER\tEVENT\tELEMENT\tFILES\tDATA")
	for _, rec := range res.Events {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\t%s\n",
			rec.Step, rec.Controller, rec.Event, rec.Element,
			strings.Join(rec.Files, ","), formatData(rec.Data))
	}
	tw.Flush()

	if len(res.Elements) == 0 {
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ELEMENT\tCLASSES")
	for _, el := range res.Elements {
		fmt.Fprintf(tw, "  %s\t%s\n", el.ID, strings.Join(el.Classes, " "))
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func formatData(data map[string]string) string {
	if len(data) == 0 {
		return ""
	}
	parts := make([]string, 0, len(data))
	for format, payload := range data {
		parts = append(parts, format+"="+payload)
	}
	slices.Sort(parts)
	return strings.Join(parts, " ")
}
