package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/ideabank-backend/internal/contract"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type rootOptions struct {
	server  string
	token   string
	timeout time.Duration
	verbose bool
}

// NewRootCommand builds ideabankctl. Every API call goes through the contract client, so
// responses are validated and writes carry an anti-forgery token.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{
		server:  os.Getenv("IDEABANK_SERVER"),
		token:   os.Getenv("IDEABANK_TOKEN"),
		timeout: 30 * time.Second,
	}

	root := &cobra.Command{
		Use:           "ideabankctl",
		Short:         "Command line client for the idea bank API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.server, "server", opts.server, "API base URL (env IDEABANK_SERVER)")
	root.PersistentFlags().StringVar(&opts.token, "token", opts.token, "Bearer token (env IDEABANK_TOKEN)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", opts.timeout, "Request timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log contract warnings to stderr")

	root.AddCommand(
		newSuggestCommand(opts),
		newPlanCommand(opts),
		newGenerationsCommand(opts),
		newTokenCommand(),
	)
	return root
}

func (o *rootOptions) client() (*contract.Client, error) {
	server := strings.TrimSuffix(strings.TrimSpace(o.server), "/")
	if server == "" {
		server = "http://localhost:8080"
	}
	log := logger.Nop()
	if o.verbose {
		l, err := logger.New("development")
		if err != nil {
			return nil, err
		}
		log = l
	}
	return contract.New(log, contract.Config{
		BaseURL:     server,
		BearerToken: o.token,
		Timeout:     o.timeout,
	}, nil), nil
}

// printResult writes the validated value, or the raw payload with a warning when the
// response did not match its contract.
func printResult(cmd *cobra.Command, res *contract.Result, schema any) error {
	var v any = schema
	if res != nil && !res.Valid {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", res.Mismatch)
		raw, err := res.Payload()
		if err != nil {
			return err
		}
		v = raw
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
