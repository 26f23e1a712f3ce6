package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/modules/lineage"
	"github.com/yungbote/ideabank-backend/internal/pkg/envutil"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
	"github.com/yungbote/ideabank-backend/internal/services"
)

type suggestResponse struct {
	Suggestions []content.AgentSuggestion `json:"suggestions" validate:"dive"`
}

// suggestionRow is what the CLI prints: confidence clamped for display, the stored score alongside.
type suggestionRow struct {
	content.AgentSuggestion
	Confidence    int `json:"confidence"`
	RawConfidence int `json:"rawConfidence"`
}

func displaySuggestions(in []content.AgentSuggestion) map[string][]suggestionRow {
	rows := make([]suggestionRow, 0, len(in))
	for _, s := range in {
		rows = append(rows, suggestionRow{AgentSuggestion: s, Confidence: s.DisplayConfidence(), RawConfidence: s.Confidence})
	}
	return map[string][]suggestionRow{"suggestions": rows}
}

func newSuggestCommand(root *rootOptions) *cobra.Command {
	var (
		products       []string
		maxSuggestions int
		mode           string
	)
	cmd := &cobra.Command{
		Use:   "suggest --product <id> [--product <id>...]",
		Short: "Rank content ideas for a set of products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(products) == 0 {
				return fmt.Errorf("at least one --product is required")
			}
			c, err := root.client()
			if err != nil {
				return err
			}
			var out suggestResponse
			res, err := c.Request(cmd.Context(), http.MethodPost, "/api/idea-bank/suggest", map[string]any{
				"productIds":     products,
				"maxSuggestions": maxSuggestions,
				"mode":           mode,
			}, &out)
			if err != nil {
				return err
			}
			return printResult(cmd, res, displaySuggestions(out.Suggestions))
		},
	}
	cmd.Flags().StringSliceVar(&products, "product", nil, "Product id (repeatable)")
	cmd.Flags().IntVar(&maxSuggestions, "max", 0, "Maximum suggestions (0 = server default)")
	cmd.Flags().StringVar(&mode, "mode", "full", "full or fast (fast skips vision)")
	return cmd
}

func newPlanCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Create and drive execution plans",
	}

	var suggestionFile string
	create := &cobra.Command{
		Use:   "create --suggestion-file <path>",
		Short: "Start a plan from a suggestion JSON document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(suggestionFile)
			if err != nil {
				return fmt.Errorf("read suggestion: %w", err)
			}
			var sug content.AgentSuggestion
			if err := json.Unmarshal(raw, &sug); err != nil {
				return fmt.Errorf("parse suggestion: %w", err)
			}
			c, err := root.client()
			if err != nil {
				return err
			}
			var out services.PlanView
			res, err := c.Request(cmd.Context(), http.MethodPost, "/api/plans", map[string]any{"suggestion": sug}, &out)
			if err != nil {
				return err
			}
			return printResult(cmd, res, out)
		},
	}
	create.Flags().StringVar(&suggestionFile, "suggestion-file", "", "Path to a suggestion JSON file")
	_ = create.MarkFlagRequired("suggestion-file")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List your plans, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := root.client()
			if err != nil {
				return err
			}
			path := "/api/plans"
			if limit > 0 {
				path = fmt.Sprintf("%s?limit=%d", path, limit)
			}
			var out []services.PlanView
			res, err := c.Request(cmd.Context(), http.MethodGet, path, nil, &out)
			if err != nil {
				return err
			}
			return printResult(cmd, res, out)
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Maximum rows")

	cmd.AddCommand(
		create,
		list,
		planIDCommand(root, "get", "Show plan state", http.MethodGet, ""),
		planIDCommand(root, "retry", "Retry failed steps", http.MethodPost, "/retry"),
		planIDCommand(root, "cancel", "Cancel at the next step boundary", http.MethodPost, "/cancel"),
	)
	return cmd
}

func planIDCommand(root *rootOptions, use, short, method, suffix string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <plan-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid plan id: %w", err)
			}
			c, err := root.client()
			if err != nil {
				return err
			}
			var out services.PlanView
			res, err := c.Request(cmd.Context(), method, "/api/plans/"+id.String()+suffix, nil, &out)
			if err != nil {
				return err
			}
			return printResult(cmd, res, out)
		},
	}
}

func newGenerationsCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generations",
		Aliases: []string{"gen"},
		Short:   "List and edit generations",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List your generations, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := root.client()
			if err != nil {
				return err
			}
			path := "/api/generations"
			if limit > 0 {
				path = fmt.Sprintf("%s?limit=%d", path, limit)
			}
			var out []lineage.View
			res, err := c.Request(cmd.Context(), http.MethodGet, path, nil, &out)
			if err != nil {
				return err
			}
			return printResult(cmd, res, out)
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Maximum rows")

	var prompt string
	edit := &cobra.Command{
		Use:   "edit <generation-id> --prompt <text>",
		Short: "Continue an editable generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid generation id: %w", err)
			}
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("--prompt is required")
			}
			c, err := root.client()
			if err != nil {
				return err
			}
			var out lineage.View
			res, err := c.Request(cmd.Context(), http.MethodPost, "/api/generations/"+id.String()+"/edit", map[string]string{"editPrompt": prompt}, &out)
			if err != nil {
				return err
			}
			return printResult(cmd, res, out)
		},
	}
	edit.Flags().StringVar(&prompt, "prompt", "", "Edit instruction")

	cmd.AddCommand(list, edit)
	return cmd
}

// newTokenCommand mints a development bearer token signed with JWT_SECRET_KEY.
func newTokenCommand() *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token --user <uuid>",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			secret := envutil.String("JWT_SECRET_KEY", "")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET_KEY is required")
			}
			tok, err := services.NewAuthService(logger.Nop(), secret).IssueAccessToken(userID, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id to put in the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
