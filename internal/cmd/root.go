// Package cmd holds the signalctl commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AaronLay10/SentientSignals/internal/config"
	"github.com/AaronLay10/SentientSignals/internal/coordinator"
)

var rootCmd = &cobra.Command{
	Use:   "signalctl",
	Short: "Traffic signal coordination service",
	Long: `signalctl runs the signal coordination service for a city catalog and
offers one-shot commands that compute timing plans, green waves, conflicts
and advisories against a local copy of the registry.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("catalog", "", "intersection catalog file (default is the built-in Bengaluru catalog)")
	rootCmd.PersistentFlags().String("scenario", "", `readings to apply before running: a scenario file or "default"`)
	_ = viper.BindPFlag("catalog", rootCmd.PersistentFlags().Lookup("catalog"))
	_ = viper.BindPFlag("scenario", rootCmd.PersistentFlags().Lookup("scenario"))
}

func initConfig() {
	viper.SetEnvPrefix("SIGNAL")
	// SIGNAL_FEED_TIMEOUT for feed.timeout
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// loadCatalog returns the configured catalog, or the built-in one.
func loadCatalog() (*config.Catalog, error) {
	path := viper.GetString("catalog")
	if path == "" {
		return config.DefaultCatalog(), nil
	}
	cat, err := config.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

// newCoordinator builds a coordinator over a fresh registry for cat.
func newCoordinator(cat *config.Catalog) (*coordinator.Coordinator, error) {
	reg, err := cat.BuildRegistry()
	if err != nil {
		return nil, err
	}
	graph, err := cat.BuildRoadNetwork()
	if err != nil {
		return nil, fmt.Errorf("failed to build road network: %w", err)
	}

	coord := coordinator.New(reg)
	coord.SetOptimizationMode(cat.Mode())
	if graph != nil {
		coord.SetRoadNetwork(graph)
	}
	return coord, nil
}

// loadScenario resolves the --scenario setting, using fallback when it is
// unset. An empty result means no readings.
func loadScenario(fallback string) (*config.Scenario, error) {
	path := viper.GetString("scenario")
	if path == "" {
		path = fallback
	}
	switch path {
	case "":
		return nil, nil
	case "default":
		return config.DefaultScenario(), nil
	default:
		s, err := config.LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario: %w", err)
		}
		return s, nil
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
