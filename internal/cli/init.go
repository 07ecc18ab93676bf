package cli

import (
	"fmt"
	"os"

	"github.com/aryankumar/batchrun/internal/config"
	"github.com/aryankumar/batchrun/internal/executor"
	"github.com/aryankumar/batchrun/internal/payload"
	"github.com/spf13/cobra"
)

// newInitCmd creates the init command, which writes a starter batch file
func newInitCmd() *cobra.Command {
	var (
		filename string
		strategy string
		squares  int
		urls     []string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter batch file",
		Long: `Write a batch file with squares and fetch items that "batchrun run -f"
can execute. The format follows the file extension (yaml, json or toml).`,
		Example: `  # Write batch.yaml with 4 squares items
  batchrun init

  # Write a JSON batch mixing squares and downloads
  batchrun init -f batch.json --squares 2 --url https://example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := executor.ParseStrategy(strategy); err != nil {
				return err
			}

			if !force {
				if _, err := os.Stat(filename); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", filename)
				}
			}

			cfg := &config.BatchConfig{
				Strategy: strategy,
				Workers:  config.DefaultWorkers,
			}
			for i := 0; i < squares; i++ {
				start := i * 1000
				cfg.Items = append(cfg.Items, config.ItemConfig{
					ID:   fmt.Sprintf("squares-%d", i),
					Kind: payload.KindSquares,
					Args: map[string]interface{}{"start": start, "end": start + 1000},
				})
			}
			for i, u := range urls {
				cfg.Items = append(cfg.Items, config.ItemConfig{
					ID:   fmt.Sprintf("fetch-%d", i),
					Kind: payload.KindFetch,
					Args: map[string]interface{}{"url": u},
				})
			}

			if err := config.NewManager(filename).Save(cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with %d items\n", filename, len(cfg.Items))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filename, "file", "f", "batch.yaml", "batch file to write")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", config.DefaultStrategy, "strategy recorded in the file")
	cmd.Flags().IntVar(&squares, "squares", 4, "number of squares items")
	cmd.Flags().StringArrayVar(&urls, "url", nil, "add a fetch item for URL (repeatable)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
