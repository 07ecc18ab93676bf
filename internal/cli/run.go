package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aryankumar/batchrun/internal/config"
	"github.com/aryankumar/batchrun/internal/executor"
	"github.com/aryankumar/batchrun/internal/observe"
	"github.com/aryankumar/batchrun/internal/output"
	"github.com/aryankumar/batchrun/internal/payload"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// squaresChunk is the range width of each generated squares item
const squaresChunk = 1000

type runOptions struct {
	file         string
	strategy     string
	consumers    int
	queueSize    int
	rate         float64
	squares      int
	urls         []string
	fetchTimeout time.Duration
	metrics      bool
	wide         bool
	noHeaders    bool
}

// newRunCmd creates the run command
func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch of work items",
		Long: `Run a batch of work items and print one outcome per item.

Items come from a batch file (-f, default ./batch.yaml when present), from
generated CPU-bound squares items (--squares) and from URLs to download
(--url). Flags override the settings of the batch file.`,
		Example: `  # Sum squares over 8 ranges of 1000 numbers with 4 threads
  batchrun run --squares 8 --strategy threads -p 4

  # Download pages with at most 3 in flight, as JSON
  batchrun run --url https://example.com --url https://go.dev -p 3 -o json

  # Run a batch file through the producer/consumer pipeline
  batchrun run -f batch.yaml --strategy pipeline --consumers 2

  # Run CPU-bound items in worker processes and print metrics
  batchrun run --squares 16 --strategy processes --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "batch file (YAML, JSON or TOML)")
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", "execution strategy (cooperative, threads, processes, pipeline)")
	cmd.Flags().IntVar(&opts.consumers, "consumers", 0, "pipeline consumer count (default: number of CPUs)")
	cmd.Flags().IntVar(&opts.queueSize, "queue-size", 0, "pipeline queue capacity (default: twice the consumers)")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "maximum payload starts per second (0 means unlimited)")
	cmd.Flags().IntVar(&opts.squares, "squares", 0, "add N squares items covering [i*1000, (i+1)*1000)")
	cmd.Flags().StringArrayVar(&opts.urls, "url", nil, "add a fetch item for URL (repeatable)")
	cmd.Flags().DurationVar(&opts.fetchTimeout, "fetch-timeout", 0, "per-request timeout for fetch items (default 10s)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print Prometheus metrics for the run")
	cmd.Flags().BoolVar(&opts.wide, "wide", false, "show values and errors in table output")
	cmd.Flags().BoolVar(&opts.noHeaders, "no-headers", false, "omit table headers")

	return cmd
}

func runBatch(ctx context.Context, cmd *cobra.Command, opts *runOptions) error {
	logger := slog.Default()
	reg := payload.Builtins()

	cfg, err := loadBatch(cmd, opts)
	if err != nil {
		return err
	}

	if err := cfg.Validate(reg); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}

	items, err := buildItems(cfg, reg, opts)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("nothing to run: use -f, --squares or --url")
	}

	strategy, err := executor.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	sinks := []observe.Sink{observe.NewLogSink(logger)}
	var metrics *observe.MetricsSink
	if opts.metrics {
		metrics = observe.NewMetricsSink()
		sinks = append(sinks, metrics)
	}

	engine := executor.New(
		executor.WithSink(observe.Multi(sinks...)),
		executor.WithLogger(logger),
		executor.WithRegistry(reg),
		executor.WithConsumers(cfg.Consumers),
		executor.WithQueueSize(cfg.QueueSize),
		executor.WithRate(cfg.Rate),
	)

	if timeout := viper.GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Debug("running batch",
		"strategy", strategy.String(),
		"items", len(items),
		"workers", cfg.Workers,
		"consumers", cfg.Consumers,
		"rate", cfg.Rate)

	result, err := engine.Run(ctx, items, strategy, cfg.Workers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	formatter := output.NewFormatter(
		output.Format(viper.GetString("output")),
		output.WithNoColor(viper.GetBool("no-color")),
		output.WithWide(opts.wide),
		output.WithNoHeaders(opts.noHeaders),
	)
	if err := formatter.FormatBatch(out, result); err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if metrics != nil {
		if err := printMetrics(out, metrics); err != nil {
			return err
		}
	}

	if failed := executor.CountFailed(result.Outcomes); failed > 0 {
		return fmt.Errorf("%d of %d items failed", failed, len(result.Outcomes))
	}
	return nil
}

// loadBatch reads the batch file and applies command-line overrides
func loadBatch(cmd *cobra.Command, opts *runOptions) (*config.BatchConfig, error) {
	cfg, err := config.NewManager(opts.file).Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("strategy") {
		cfg.Strategy = opts.strategy
	}
	if viper.IsSet("parallel") {
		cfg.Workers = viper.GetInt("parallel")
	}
	if flags.Changed("consumers") {
		cfg.Consumers = opts.consumers
	}
	if flags.Changed("queue-size") {
		cfg.QueueSize = opts.queueSize
	}
	if flags.Changed("rate") {
		cfg.Rate = opts.rate
	}
	if flags.Changed("fetch-timeout") {
		cfg.FetchTimeout = opts.fetchTimeout
	}

	return cfg, nil
}

// buildItems combines file items with generated squares and fetch items.
// Generated items are numbered after any file item that already uses their
// "<kind>-<n>" ID, so IDs stay unique.
func buildItems(cfg *config.BatchConfig, reg *executor.Registry, opts *runOptions) ([]executor.WorkItem, error) {
	items, err := cfg.WorkItems(reg)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(items))
	for _, item := range items {
		taken[item.ID] = true
	}

	if opts.squares > 0 {
		squares, err := payload.SquaresItems(reg, opts.squares, squaresChunk)
		if err != nil {
			return nil, err
		}
		renumber(squares, payload.KindSquares, taken)
		items = append(items, squares...)
	}

	if len(opts.urls) > 0 {
		fetches, err := payload.FetchItems(reg, opts.urls, cfg.FetchTimeout)
		if err != nil {
			return nil, err
		}
		renumber(fetches, payload.KindFetch, taken)
		items = append(items, fetches...)
	}

	return items, nil
}

// renumber names generated prefix-k, prefix-k+1, ... using the smallest k for
// which none of those IDs is taken, then marks them taken
func renumber(generated []executor.WorkItem, prefix string, taken map[string]bool) {
	offset := 0
	for i := 0; i < len(generated); i++ {
		if taken[fmt.Sprintf("%s-%d", prefix, offset+i)] {
			offset += i + 1
			i = -1
		}
	}

	for i := range generated {
		generated[i].ID = fmt.Sprintf("%s-%d", prefix, offset+i)
		taken[generated[i].ID] = true
	}
}

func printMetrics(w io.Writer, metrics *observe.MetricsSink) error {
	fmt.Fprintln(w, "")
	if err := observe.WriteText(w, metrics.Registry()); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
