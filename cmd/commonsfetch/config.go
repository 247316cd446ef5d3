package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"commonsfetch/pkg/config"
	"commonsfetch/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage commonsfetch configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (COMMONSFETCH_*), including .env files
  - Configuration file
  - Default values`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write the default configuration as YAML.

The file is created as '.commonsfetch.yaml' in the current directory unless a
different path is given with --config. Existing files are never overwritten.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run:   runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from all sources and check it for invalid values.

Also checks that the parent of the output directory exists, since only the
output directory itself and the per-term folder are created on demand.`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".commonsfetch.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Set api.user_agent to something that identifies you")
	fmt.Println("2. Run 'commonsfetch config validate' to check the configuration")
	fmt.Println("3. Start downloading with 'commonsfetch fetch <term>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, commonFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, commonFlags(cmd))
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var problems []string
	if err := config.CheckOutputParent(cfg.Output.BaseDirectory); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Endpoint: %s\n", cfg.API.Endpoint)
	fmt.Printf("  Limit: %d\n", cfg.Search.Limit)
	fmt.Printf("  Max file size: %d bytes\n", cfg.Search.MaxFileSize)
	fmt.Printf("  MIME types: %v\n", cfg.Search.MIMETypes)
	fmt.Printf("  Follow continuation: %t\n", cfg.Search.FollowContinuation)
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
