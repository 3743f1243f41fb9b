package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/cli/output"
)

// NewTemplatesCommand creates the templates command.
func NewTemplatesCommand() *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the email templates known to the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTemplates(cmd, style)
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "Only show templates with this style")
	return cmd
}

func runTemplates(cmd *cobra.Command, style string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	templates, err := cc.Client().ListEmailTemplates(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load email templates: %w", err)
	}
	if style != "" {
		filtered := templates[:0]
		for _, t := range templates {
			if strings.EqualFold(t.Style, style) {
				filtered = append(filtered, t)
			}
		}
		templates = filtered
	}
	if templates == nil {
		templates = []api.EmailTemplate{}
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(templates)
	case output.ModeYAML:
		return r.YAML(templates)
	}

	r.Header(1, fmt.Sprintf("Email Templates (%d)", len(templates)))
	if len(templates) == 0 {
		r.Muted("No email templates found.")
		return nil
	}
	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, []string{
			strconv.Itoa(t.ID),
			t.Name,
			t.Style,
			t.SubjectTemplate,
			strings.Join(t.UseCases, ", "),
		})
	}
	r.Table([]string{"ID", "Name", "Style", "Subject", "Use Cases"}, rows)
	return nil
}
