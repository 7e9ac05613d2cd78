// Command meshsim validates and inspects simulation run configurations:
// it resolves the module dependency graph, reports configuration errors as a
// complete set, and prints the chunked execution schedule.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/meshsim-dev/meshsim"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "meshsim",
	Short:         "Dependency-scheduled simulation driver core",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a run configuration end to end",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, graph, chunks, err := loadAndSchedule()
		if err != nil {
			return err
		}
		if _, err := cfg.OutputDescriptors(); err != nil {
			return err
		}
		if _, err := cfg.CheckpointPolicy(); err != nil {
			return err
		}
		logger := newLogger()
		if _, err := meshsim.DetectBudget(meshsim.OSEnvironment{}, logger); err != nil {
			return err
		}
		meshsim.DetectBatchJob(meshsim.OSEnvironment{}, logger)
		color.Green("configuration %q is valid: %d modules in %d chunks",
			cfg.Name, graph.ModuleCount(), len(chunks))
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the chunked execution schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, graph, chunks, err := loadAndSchedule()
		if err != nil {
			return err
		}
		color.Cyan("schedule for %q (%d chunks):", cfg.Name, len(chunks))
		for i, chunk := range chunks {
			fmt.Printf("  chunk %d: %s\n", i, strings.Join(graph.Names(chunk), ", "))
		}
		return nil
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Emit the dependency graph in graphviz DOT format",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, graph, _, err := loadAndSchedule()
		if err != nil {
			return err
		}
		fmt.Print(graph.DOT())
		return nil
	},
}

func loadAndSchedule() (*meshsim.Config, *meshsim.Graph, []meshsim.Chunk, error) {
	cfg, err := meshsim.LoadConfigFile(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	graph, err := meshsim.Build(cfg.Registry(), cfg.ProviderOverrides)
	if err != nil {
		return nil, nil, nil, err
	}
	chunks, err := meshsim.Schedule(graph)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, graph, chunks, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return meshsim.NewLogger(level)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "meshsim.yaml", "Path to the YAML run configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(validateCmd, planCmd, graphCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}
