// Command campaigner runs the marketing campaign pipeline from the
// terminal: start a run, resume it past review checkpoints, inspect a saved
// snapshot, and export the finished campaign.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/engine"
	"github.com/spetersoncode/campaigner/gateway"
	"github.com/spetersoncode/campaigner/llm"
	"github.com/spetersoncode/campaigner/llm/anthropic"
	"github.com/spetersoncode/campaigner/llm/google"
	"github.com/spetersoncode/campaigner/llm/openai"
	"github.com/spetersoncode/campaigner/stage"
)

var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	// Missing .env is fine; the environment may carry the keys directly.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "campaigner",
		Short:         "Multi-stage marketing campaign pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(newRunCmd(), newResumeCmd(), newStatusCmd(), newExportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func loadConfig() (campaigner.Config, error) {
	if flagConfig == "" {
		return campaigner.DefaultConfig(), nil
	}
	return campaigner.LoadConfig(flagConfig)
}

// newClient builds the LLM client named by the config.
func newClient(cmd *cobra.Command, cfg campaigner.Config) (llm.Client, error) {
	switch cfg.Provider {
	case "anthropic", "":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		opts := []anthropic.ClientOption{anthropic.WithAPIKey(key)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		return anthropic.New(opts...), nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		opts := []openai.ClientOption{}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		return openai.New(key, opts...), nil
	case "google":
		key := os.Getenv("GOOGLE_API_KEY")
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY not set")
		}
		opts := []google.ClientOption{}
		if cfg.Model != "" {
			opts = append(opts, google.WithModel(cfg.Model))
		}
		return google.New(cmd.Context(), key, opts...)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// newGateway assembles the outbound gateway. Search is wired only when a
// Tavily key is present; the competitor stage degrades without it.
func newGateway(client llm.Client, cfg campaigner.Config, log *zap.Logger) *gateway.Gateway {
	opts := []gateway.Option{
		gateway.WithLimits(cfg.Gateway),
		gateway.WithLogger(log),
		gateway.WithFetcher(gateway.NewHTTPFetcher()),
	}
	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		opts = append(opts, gateway.WithSearcher(gateway.NewTavilyClient(key)))
	}
	return gateway.New(client, opts...)
}

func newEngine(cmd *cobra.Command, log *zap.Logger) (*engine.Engine, *gateway.Gateway, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := newClient(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	gw := newGateway(client, cfg, log)
	eng := engine.New(stage.DefaultRegistry(gw, cfg), cfg, engine.WithLogger(log))
	return eng, gw, nil
}
