// Package commands holds the relayctl subcommands.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gaborage/relay-bricks/config"
	relayhttp "github.com/gaborage/relay-bricks/http"
	"github.com/gaborage/relay-bricks/logger"
	"github.com/gaborage/relay-bricks/relay"
)

// Output formats supported by the act command.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrRelayFailed is returned after printing an outcome that is not a success.
var ErrRelayFailed = errors.New("relay request failed")

// ActOptions holds options for the act command
type ActOptions struct {
	URL     string
	APIKey  string
	BaseURL string
	Model   string
	Prompt  string
	Content string
	Format  string
	Timeout time.Duration
	Verbose bool
}

type configLoader func() (*config.Config, error)

// NewActCommand creates the act command
func NewActCommand() *cobra.Command {
	return newActCommand(config.Load)
}

func newActCommand(load configLoader) *cobra.Command {
	opts := &ActOptions{}

	cmd := &cobra.Command{
		Use:   "act [content]",
		Short: "Send text to the relay and print the outcome",
		Long: `Posts {api_key, base_url, model, prompt, content} to the relay. Fields left
empty are filled in by the relay from its own defaults. Content is read from
the argument, --content, or stdin when given as "-".`,
		Example: `  # Rewrite a sentence through the relay configured in config.yaml
  relayctl act "The quick brown fox jumps over the lazy dog."

  # Target a specific relay and model, YAML output
  relayctl act --url https://relay.example.com/ --model Qwen/Qwen2.5-7B-Instruct -o yaml "hello"

  # Read the text from stdin
  cat draft.txt | relayctl act -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Content = args[0]
			}
			return runAct(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), load, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.URL, "url", "u", "", "Relay URL (defaults to relay.url)")
	cmd.Flags().StringVar(&opts.APIKey, "api-key", "", "Upstream API key forwarded to the relay")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "Upstream base URL forwarded to the relay")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "Model name")
	cmd.Flags().StringVarP(&opts.Prompt, "prompt", "p", "", "System prompt")
	cmd.Flags().StringVarP(&opts.Content, "content", "c", "", "Text to rewrite (\"-\" reads stdin)")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", FormatJSON, "Output format (json|yaml)")
	cmd.Flags().DurationVarP(&opts.Timeout, "timeout", "t", 0, "Request timeout (defaults to client.timeout)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log HTTP activity to stderr")

	return cmd
}

func runAct(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, load configLoader, opts *ActOptions) error {
	if err := validateActOptions(opts); err != nil {
		return err
	}

	cfg, err := load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	content := opts.Content
	if content == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content = strings.TrimRight(string(raw), "\r\n")
	}

	relayURL := opts.URL
	if relayURL == "" {
		relayURL = cfg.Relay.URL
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log := logger.NewWithWriter(stderr, level, true, nil)

	builder := relayhttp.NewBuilderFromConfig(cfg.Client, log)
	if opts.Timeout > 0 {
		builder.WithTimeout(opts.Timeout)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	outcome := relay.NewCaller(builder.Build(), relayURL).Act(ctx, relay.Request{
		APIKey:  opts.APIKey,
		BaseURL: opts.BaseURL,
		Model:   opts.Model,
		Prompt:  opts.Prompt,
		Content: content,
	})

	if err := writeOutcome(stdout, opts.Format, outcome); err != nil {
		return err
	}
	if !outcome.OK() {
		return fmt.Errorf("%w: %d %s", ErrRelayFailed, outcome.Code, outcome.Message)
	}
	return nil
}

func validateActOptions(opts *ActOptions) error {
	switch opts.Format {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("invalid output format %q (json|yaml)", opts.Format)
	}
	if opts.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

func writeOutcome(w io.Writer, format string, outcome relay.Outcome) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(outcome); err != nil {
			return fmt.Errorf("failed to encode outcome: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}
	return nil
}
