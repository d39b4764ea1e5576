package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flaretrack/flaretrack/internal/domain/analysis"
	"github.com/flaretrack/flaretrack/internal/domain/terminology"
)

type analyzeOptions struct {
	input  string
	now    string
	user   string
	pretty bool
	coded  bool
}

func analyzeCmd() *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute a signal report from a JSON snapshot without a database",
		Long: `Reads a snapshot of doses, outcomes, discoveries and an optional profile
(the body accepted by POST /api/v1/signals/analyze) and prints the report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if opts.input != "-" {
				f, err := os.Open(opts.input)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runAnalyze(in, cmd.OutOrStdout(), opts, time.Now().UTC())
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "Snapshot JSON file, or - for stdin")
	cmd.Flags().StringVar(&opts.now, "now", "", "Analysis time (RFC 3339); overrides the snapshot's now")
	cmd.Flags().StringVar(&opts.user, "user", "", "User id; overrides the snapshot's user_id")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the report")
	cmd.Flags().BoolVar(&opts.coded, "meddra", true, "Attach built-in MedDRA codes to signals")
	return cmd
}

func runAnalyze(r io.Reader, w io.Writer, opts analyzeOptions, clock time.Time) error {
	var req analysis.AnalyzeRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	nowText := req.Now
	if opts.now != "" {
		nowText = opts.now
	}
	now := clock
	if nowText != "" {
		t, err := time.Parse(time.RFC3339, nowText)
		if err != nil {
			return fmt.Errorf("invalid now %q: %w", nowText, err)
		}
		now = t
	}

	userText := req.UserID
	if opts.user != "" {
		userText = opts.user
	}
	userID := uuid.Nil
	if userText != "" {
		id, err := uuid.Parse(userText)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", userText, err)
		}
		userID = id
	}

	var svcOpts []analysis.Option
	if opts.coded {
		dict, err := terminology.LoadDictionary(context.Background(), terminology.NewBuiltinRepo())
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, analysis.WithCoder(dict))
	}
	report := analysis.NewService(nil, svcOpts...).Analyze(userID, req.RawSnapshot, now)

	enc := json.NewEncoder(w)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}
