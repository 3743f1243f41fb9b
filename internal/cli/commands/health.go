package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/cli/output"
)

// HealthOutput is the JSON shape of the health command.
type HealthOutput struct {
	URL string `json:"url"`
	api.Connection
}

// NewHealthCommand creates the health command.
func NewHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the connection to the sales agent API",
		Long: `Call the API health endpoint and report its status.

Exits with an error when the API is unreachable.`,
		RunE: runHealth,
	}
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	client := cc.Client()
	out := HealthOutput{URL: client.BaseURL(), Connection: client.TestConnection(cmd.Context())}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(out); err != nil {
			return err
		}
	case output.ModeYAML:
		if err := r.YAML(out); err != nil {
			return err
		}
	default:
		if out.Connected {
			r.Success("API Connected")
			r.Println(output.FormatKeyValue("URL", out.URL))
			r.Println(output.FormatKeyValue("Status", out.Status))
			if out.Service != "" {
				r.Println(output.FormatKeyValue("Service", out.Service))
			}
			if out.Version != "" {
				r.Println(output.FormatKeyValue("Version", out.Version))
			}
		} else {
			r.Error("API Disconnected")
			r.Println(output.FormatKeyValue("URL", out.URL))
			r.Println(output.FormatKeyValue("Error", out.Error))
		}
	}

	if !out.Connected {
		return fmt.Errorf("api unreachable at %s", out.URL)
	}
	return nil
}
