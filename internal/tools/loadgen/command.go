package loadgen

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/product-catalog-api/internal/tools/common"
	"github.com/sandeepkv93/product-catalog-api/internal/tools/ui"
)

type options struct {
	baseURL     string
	profile     string
	duration    time.Duration
	rps         int
	concurrency int
	seed        int64
	ci          bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "loadgen", Short: "Generate traffic against the product catalog API"}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "http://localhost:8000", "API base URL")
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "mixed", "traffic profile: read|mixed|error-heavy")
	cmd.PersistentFlags().DurationVar(&opts.duration, "duration", 15*time.Second, "traffic duration")
	cmd.PersistentFlags().IntVar(&opts.rps, "rps", 20, "requests per second")
	cmd.PersistentFlags().IntVar(&opts.concurrency, "concurrency", 6, "concurrent workers")
	cmd.PersistentFlags().Int64Var(&opts.seed, "seed", 42, "random seed")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

const exitLoadgenFailed = 4

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Send catalog traffic at a fixed rate and report status classes",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if len(requestsForProfile(strings.ToLower(opts.profile))) == 0 {
				return fmt.Errorf("unknown profile %q (want read, mixed or error-heavy)", opts.profile)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			details, err := run(opts, "loadgen run", func(ctx context.Context) ([]string, error) {
				res, err := Run(ctx, Config{
					BaseURL:     opts.baseURL,
					Profile:     opts.profile,
					Duration:    opts.duration,
					RPS:         opts.rps,
					Concurrency: opts.concurrency,
					Seed:        opts.seed,
				})
				if err != nil {
					return nil, err
				}
				return summarize(res, opts.profile, opts.duration), nil
			})
			common.RecordRun(cmd.Context(), "loadgen", "run", start, err)
			if opts.ci {
				common.PrintCIResult(err == nil, "loadgen run", details, err)
			}
			if err != nil {
				os.Exit(exitLoadgenFailed)
			}
			return nil
		},
	}
}

// summarize renders a run as key=value report lines.
func summarize(res Result, profile string, duration time.Duration) []string {
	achieved := 0.0
	if duration > 0 {
		achieved = float64(res.TotalRequests) / duration.Seconds()
	}
	return []string{
		"profile=" + profile,
		fmt.Sprintf("total_requests=%d", res.TotalRequests),
		fmt.Sprintf("achieved_rps=%.1f", achieved),
		fmt.Sprintf("failures=%d", res.Failures),
		fmt.Sprintf("status_2xx=%d", res.Status2xx),
		fmt.Sprintf("status_4xx=%d", res.Status4xx),
		fmt.Sprintf("status_5xx=%d", res.Status5xx),
	}
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), opts.duration+15*time.Second)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, opts.duration+15*time.Second, fn)
}
