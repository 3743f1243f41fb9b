package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/salesdesk/internal/cli/config"
	"github.com/leapstack-labs/salesdesk/internal/cli/output"
)

// BuildInfo identifies a SalesDesk build.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display SalesDesk version and build information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if info.GoVersion == "" {
				info.GoVersion = runtime.Version()
			}

			// version must work without a loadable config
			mode := output.ModeAuto
			if cfg := config.GetCurrentConfig(); cfg != nil {
				mode = output.Mode(cfg.OutputFormat)
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(info)
			case output.ModeYAML:
				return r.YAML(info)
			}

			r.Printf("SalesDesk v%s\n", info.Version)
			r.Muted("AI sales dashboard built with Go")
			if info.GitCommit != "" && info.GitCommit != "unknown" {
				r.Println(output.FormatKeyValue("Commit", info.GitCommit))
			}
			if info.BuildDate != "" && info.BuildDate != "unknown" {
				r.Println(output.FormatKeyValue("Built", info.BuildDate))
			}
			r.Println(output.FormatKeyValue("Go", info.GoVersion))
			return nil
		},
	}
}
