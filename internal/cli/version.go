package cli

import (
	"fmt"

	"github.com/aryankumar/batchrun/internal/output"
	"github.com/aryankumar/batchrun/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display detailed version information for batchrun",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command) error {
	info := version.Get()
	w := cmd.OutOrStdout()

	format := output.Format(viper.GetString("output"))
	switch format {
	case output.FormatJSON, output.FormatYAML:
		return output.NewFormatter(format).Format(w, info)
	case output.FormatTable:
		return output.NewFormatter(format, output.WithNoColor(true)).Format(w, map[string]string{
			"Version":    info.Version,
			"Commit":     info.Commit,
			"Build Time": info.BuildTime,
			"Go Version": info.GoVersion,
			"Platform":   info.Platform,
		})
	default:
		fmt.Fprintln(w, info.String())
		return nil
	}
}
