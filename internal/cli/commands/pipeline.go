package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/cli/output"
	"github.com/leapstack-labs/salesdesk/internal/session"
)

// stageAll expands to analysis, recommendations and email.
const stageAll = "all"

// maxListedRecommendations caps the recommendations printed.
const maxListedRecommendations = 5

// PipelineOptions holds options for the pipeline command.
type PipelineOptions struct {
	Stages    []string
	Products  []int
	Force     bool
	SaveEmail string
}

// StageOutput is one stage in the pipeline command's JSON output.
type StageOutput struct {
	Stage  string `json:"stage"`
	Label  string `json:"label"`
	Status string `json:"status"`
}

// PipelineOutput is the JSON shape of the pipeline command.
type PipelineOutput struct {
	CustomerID      int                  `json:"customer_id"`
	Customer        *api.Customer        `json:"customer,omitempty"`
	Stages          []StageOutput        `json:"stages"`
	Analysis        *api.Analysis        `json:"analysis,omitempty"`
	Recommendations *api.Recommendations `json:"recommendations,omitempty"`
	Email           *api.Email           `json:"email,omitempty"`
	Mockup          *api.Mockup          `json:"mockup,omitempty"`
	EmailFile       string               `json:"email_file,omitempty"`
	Error           string               `json:"error,omitempty"`
}

// NewPipelineCommand creates the pipeline command.
func NewPipelineCommand() *cobra.Command {
	opts := &PipelineOptions{}

	cmd := &cobra.Command{
		Use:   "pipeline <customer-id>",
		Short: "Run the outreach pipeline for one customer",
		Long: `Select a customer and run pipeline stages against the API.

Stages run in the order given. "all" runs analysis, recommendations and
email. Stages already complete in the cache are restored instead of
re-run unless --force is set. Results are merged into the cache, so the
dashboard's ready column picks them up.`,
		Example: `  # Full outreach material for customer 7
  salesdesk pipeline 7

  # Recommendations and mockups, saving nothing else
  salesdesk pipeline 7 --stage recommendations --stage mockups

  # Email including two extra products, written to ./out
  salesdesk pipeline 7 --stage all --product 10 --product 12 --save-email out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Stages, "stage", []string{stageAll}, "Stages to run (all|analysis|recommendations|email|mockups)")
	cmd.Flags().IntSliceVar(&opts.Products, "product", nil, "Extra product ids to include in the email")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Re-run stages that are already complete")
	cmd.Flags().StringVar(&opts.SaveEmail, "save-email", "", "Directory to write the generated email to")
	cmd.Flags().String("email-style", "", "Email style (default: consultative)")
	_ = cmd.RegisterFlagCompletionFunc("stage", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{stageAll, "analysis", "recommendations", "email", "mockups"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// expandStages resolves stage names into the runnable stages in order.
func expandStages(names []string) ([]session.Stage, error) {
	var out []session.Stage
	for _, name := range names {
		if strings.EqualFold(name, stageAll) {
			out = append(out, session.Analysis, session.Recommendations, session.Email)
			continue
		}
		stage, err := session.ParseStage(name)
		if err != nil || stage == session.Profile {
			return nil, fmt.Errorf("unknown stage %q", name)
		}
		out = append(out, stage)
	}
	return out, nil
}

func runPipeline(cmd *cobra.Command, arg string, opts *PipelineOptions) error {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid customer id %q", arg)
	}
	stages, err := expandStages(opts.Stages)
	if err != nil {
		return err
	}

	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, cleanup, err := cc.OpenCache(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sessionOpts := cc.Cfg.SessionOptions()
	sessionOpts.Logger = cc.Logger
	sess := session.New(cc.Client(), store, sessionOpts)

	if err := sess.Select(ctx, id); err != nil {
		msg, _ := session.Notice(session.Profile, err)
		return fmt.Errorf("%s: %w", msg, err)
	}

	var runErr error
	for _, stage := range stages {
		if !opts.Force && sess.View().Status(stage) == session.Complete {
			cc.Logger.Debug("stage restored from cache", "stage", stage, "customer_id", id)
			continue
		}
		if err := sess.Run(ctx, stage, opts.Products...); err != nil {
			msg, _ := session.Notice(stage, err)
			runErr = fmt.Errorf("%s: %w", msg, err)
			break
		}
	}

	out := pipelineOutput(sess.View())
	if runErr != nil {
		out.Error = runErr.Error()
	}
	if opts.SaveEmail != "" {
		if text, ok := sess.EmailText(); ok {
			path := filepath.Join(opts.SaveEmail, sess.EmailFilename())
			if err := os.MkdirAll(opts.SaveEmail, 0750); err != nil {
				return fmt.Errorf("failed to create email directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(text), 0600); err != nil {
				return fmt.Errorf("failed to write email: %w", err)
			}
			out.EmailFile = path
		}
	}

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
		renderPipeline(r, sess.View(), out)
	}
	return runErr
}

func pipelineOutput(v session.View) PipelineOutput {
	out := PipelineOutput{
		CustomerID:      v.CustomerID,
		Customer:        v.Customer,
		Analysis:        v.Analysis,
		Recommendations: v.Recommendations,
		Email:           v.Email,
		Mockup:          v.Mockup,
	}
	for _, sv := range v.Stages {
		out.Stages = append(out.Stages, StageOutput{
			Stage:  sv.Stage.String(),
			Label:  sv.Stage.Label(),
			Status: sv.Status.String(),
		})
	}
	return out
}

func renderPipeline(r *output.Renderer, v session.View, out PipelineOutput) {
	styles := r.Styles()

	title := fmt.Sprintf("Customer %d", v.CustomerID)
	if v.Customer != nil {
		title = v.Customer.DisplayName()
	}
	r.Header(1, title)
	r.Println("")

	r.Header(2, "Pipeline")
	for _, sv := range v.Stages {
		icon := styles.StatusPending.String()
		switch sv.Status {
		case session.Complete:
			icon = styles.StatusSuccess.String()
		case session.Failed:
			icon = styles.StatusFailed.String()
		case session.Processing:
			icon = styles.StatusRunning.String()
		}
		r.Printf("%s %s\n", icon, sv.Stage.Label())
	}
	r.Println("")

	if a := v.Analysis; a != nil {
		r.Header(2, "Analysis")
		r.Println(output.FormatKeyValue("Confidence", fmt.Sprintf("%d%%", v.Stats.Confidence)))
		r.Println(output.FormatKeyValue("Est. Response Rate", fmt.Sprintf("%d%%", v.Stats.ResponseRate)))
		if profile := a.Detail("company_profile"); profile != "" {
			r.Println(output.FormatKeyValue("Company Profile", profile))
		}
		if len(a.PainPoints) > 0 {
			r.Println(output.FormatKeyValue("Pain Points", strings.Join(a.PainPoints, ", ")))
		}
		if len(a.Opportunities) > 0 {
			r.Println(output.FormatKeyValue("Opportunities", strings.Join(a.Opportunities, ", ")))
		}
		r.Println("")
	}

	if recs := v.Recommendations; !recs.Empty() {
		r.Header(2, "Recommendations")
		rows := make([][]string, 0, maxListedRecommendations)
		for i, rec := range recs.Recommendations {
			if i == maxListedRecommendations {
				break
			}
			rows = append(rows, []string{
				strconv.Itoa(rec.ProductID),
				rec.Name,
				rec.Category,
				rec.PriceRange,
				fmt.Sprintf("%d%%", api.Percent(rec.MatchScore)),
			})
		}
		r.Table([]string{"ID", "Product", "Category", "Price", "Match"}, rows)
		r.Println("")
	}

	if e := v.Email; !e.Empty() {
		r.Header(2, "Email")
		r.Println(output.FormatKeyValue("Personalization", fmt.Sprintf("%d%%", v.Stats.Personalization)))
		r.Println(output.FormatKeyValue("Subject", e.Subject))
		r.Println("")
		r.Println(e.Body)
		if out.EmailFile != "" {
			r.Println("")
			r.Success("Email saved to " + out.EmailFile)
		}
		r.Println("")
	}

	if m := v.Mockup; m != nil && len(m.MockupImages) > 0 {
		r.Header(2, "Mockups")
		for i := range m.MockupImages {
			variation := m.Variation(i)
			r.Println(output.FormatKeyValue(variation.Type, variation.Description))
		}
		r.Println("")
	}
}
