package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage stored API keys",
	Long: `Stored keys are named after the provider type (openai, openrouter,
anthropic) or "vision" for the image backend. They fill in keys missing from
the config file and environment.`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <name> [value|-]",
	Short: "Store a key; with - or no value it is read from stdin",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := "-"
		if len(args) == 2 {
			value = args[1]
		}
		if value == "-" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read key from stdin: %w", err)
			}
			value = line
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return fmt.Errorf("empty value for %s", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.CredentialStore.Set(args[0], value)
		if err := cfg.CredentialStore.Save(cfg.DataDir()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%s)\n", args[0], cfg.CredentialStore.GetMethod())
		return nil
	},
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.CredentialStore.Delete(args[0])
		return cfg.CredentialStore.Save(cfg.DataDir())
	},
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored key names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		for _, name := range cfg.CredentialStore.Keys() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsSetCmd, credentialsDeleteCmd, credentialsListCmd)
	rootCmd.AddCommand(credentialsCmd)
}
