package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/goaux/contextvalue"
	"github.com/goaux/headline"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tensorplex-labs/genapp/internal/config"
	"github.com/tensorplex-labs/genapp/internal/llm"
	"github.com/tensorplex-labs/genapp/internal/materializer"
	"github.com/tensorplex-labs/genapp/internal/pipeline"
	"github.com/tensorplex-labs/genapp/internal/utils/logger"
)

type flagsType struct {
	Dir      string
	Model    string
	Provider string
	Debug    bool
	Trace    bool
}

func newRootCmd() *cobra.Command {
	fl := &flagsType{}

	cmd := &cobra.Command{
		Use:     "genapp [request]",
		Short:   headline.Get(usage),
		Long:    render(usage),
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runGenerate,

		PersistentPreRunE: setup(fl),

		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := cmd.PersistentFlags()
	pf.SortFlags = false
	pf.StringVar(&fl.Provider, "provider", "", "generation `provider` (gemini or openai)")
	pf.StringVarP(&fl.Model, "model", "m", "", "`model` name, overrides GEMINI_MODEL / OPENAI_MODEL")
	pf.BoolVar(&fl.Debug, "debug", false, "sets log level to debug")
	pf.BoolVar(&fl.Trace, "trace", false, "sets log level to trace")

	f := cmd.Flags()
	f.SortFlags = false
	f.StringVarP(&fl.Dir, "dir", "d", "", "output `directory` (default generated-code)")
	cmd.MarkFlagDirname("dir")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.AddCommand(newModelsCmd())
	return cmd
}

// setup initializes logging and configuration before any command runs and
// stores the config in the command context.
func setup(fl *flagsType) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		envErr := godotenv.Load()

		logger.Init(logger.Options{
			Environment: os.Getenv("ENVIRONMENT"),
			Debug:       fl.Debug,
			Trace:       fl.Trace,
			Out:         cmd.ErrOrStderr(),
		})
		if envErr != nil {
			log.Debug().Msg(".env not loaded; continuing with existing environment")
		}

		cfg, err := config.LoadConfig(cmd.Context())
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		applyFlags(cfg, fl)
		if err := cfg.Validate(); err != nil {
			return err
		}

		cmd.SetContext(contextvalue.With(cmd.Context(), cfg))
		return nil
	}
}

func applyFlags(cfg *config.AppConfig, fl *flagsType) {
	if fl.Dir != "" {
		cfg.OutputDir = fl.Dir
	}
	if fl.Provider != "" {
		cfg.Provider = strings.ToLower(fl.Provider)
	}
	if fl.Model != "" {
		switch cfg.Provider {
		case config.ProviderOpenAI:
			cfg.OpenAIModel = fl.Model
		default:
			cfg.GeminiModel = fl.Model
		}
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, ok := contextvalue.From[*config.AppConfig](cmd.Context())
	if !ok {
		panic("never")
	}

	prompt, err := readPrompt(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	mat, err := materializer.New(cfg.OutputDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Asking %s to build: %q...\n", gen.GetModelName(), prompt)

	report, err := pipeline.New(gen, mat).Run(cmd.Context(), prompt)
	if err != nil {
		return describe(err)
	}
	return printReport(cmd.OutOrStdout(), report)
}

// readPrompt takes the request from the argument, or from stdin when the
// argument is absent or "-". An interactive stdin shows help instead.
func readPrompt(cin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	if len(args) == 0 && isTTY(cin) {
		return "", pflag.ErrHelp
	}
	data, err := io.ReadAll(cin)
	if err != nil {
		return "", fmt.Errorf("read request from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func newGenerator(cfg *config.AppConfig) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(&cfg.OpenAIEnvConfig, cfg.ClientEnvConfig)
	case config.ProviderGemini:
		return llm.NewGeminiClient(&cfg.GeminiEnvConfig, cfg.ClientEnvConfig)
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

func render(text string) string {
	if isTTY(os.Stdout) {
		r, err := glamour.NewTermRenderer(
			glamour.WithEnvironmentConfig(),
			glamour.WithWordWrap(100),
		)
		if err == nil { // if NO error
			if s, err := r.Render(text); err == nil { // if NO error
				return s
			}
		}
	}
	return text
}

func isTTY(v any) bool {
	if f, ok := v.(*os.File); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}
