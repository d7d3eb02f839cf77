// Package cmd holds the muhabbet command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"muhabbet/config"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "muhabbet",
	Short: "Chat backend for the Muhabbet AI assistant",
	Long: `muhabbet serves the Muhabbet AI chat API: a Turkish-speaking assistant
backed by OpenAI, OpenRouter, Anthropic or Ollama, with stored sessions and
optional image analysis.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvFile,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/muhabbet/config.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
}

// loadEnvFile loads the dotenv file. A missing default file is not an error;
// one named explicitly with --env-file must exist.
func loadEnvFile(cmd *cobra.Command, _ []string) error {
	if envFile == "" {
		return nil
	}
	err := godotenv.Load(envFile)
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) && !cmd.Flags().Changed("env-file") {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", envFile, err)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
