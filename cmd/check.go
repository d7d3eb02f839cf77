package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"muhabbet/provider"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config and ping the configured model backends",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := provider.ValidateSettings(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	pcfg := provider.ConfigFromSettings(cfg)
	if err := provider.PingProvider(ctx, pcfg); err != nil {
		return fmt.Errorf("%s (%s): %w", pcfg.Type, pcfg.Model, err)
	}
	fmt.Fprintf(out, "%s (%s): ok\n", pcfg.Type, pcfg.Model)

	if !cfg.VisionEnabled() {
		fmt.Fprintln(out, "vision: disabled")
		return nil
	}
	vcfg := pcfg
	vcfg.APIKey = cfg.VisionAPIKey()
	vcfg.Model = cfg.VisionModel()
	if err := provider.PingProvider(ctx, vcfg); err != nil {
		return fmt.Errorf("vision (%s): %w", vcfg.Model, err)
	}
	fmt.Fprintf(out, "vision (%s): ok\n", vcfg.Model)
	return nil
}
