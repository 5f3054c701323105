package main

import (
	"fmt"

	"github.com/goaux/contextvalue"
	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/genapp/internal/config"
	"github.com/tensorplex-labs/genapp/internal/llm"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List Gemini models that support content generation",
		Args:  cobra.NoArgs,
		RunE:  runModels,
	}
}

func runModels(cmd *cobra.Command, _ []string) error {
	cfg, ok := contextvalue.From[*config.AppConfig](cmd.Context())
	if !ok {
		panic("never")
	}
	if cfg.Provider != config.ProviderGemini {
		return fmt.Errorf("models is only supported for the %s provider", config.ProviderGemini)
	}

	client, err := llm.NewGeminiClient(&cfg.GeminiEnvConfig, cfg.ClientEnvConfig)
	if err != nil {
		return err
	}
	models, err := client.ListModels(cmd.Context())
	if err != nil {
		return describe(err)
	}

	w := cmd.OutOrStdout()
	for _, m := range models {
		fmt.Fprintf(w, "%s\t%s\n", m.Name, m.DisplayName)
	}
	return nil
}
