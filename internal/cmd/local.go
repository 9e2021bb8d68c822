package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/SentientSignals/internal/api"
	"github.com/AaronLay10/SentientSignals/internal/config"
	"github.com/AaronLay10/SentientSignals/internal/coordinator"
	"github.com/AaronLay10/SentientSignals/internal/greenwave"
)

// The commands in this file run against an in-process registry built from
// the catalog and, optionally, a scenario. Nothing is persisted or published.

var statusCmd = &cobra.Command{
	Use:   "status [intersection-id...]",
	Short: "Show network status, or corridor status for the given intersections",
	RunE:  runStatus,
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize <intersection-id>",
	Short: "Compute and apply a timing plan for one intersection",
	Args:  cobra.ExactArgs(1),
	RunE:  runOptimize,
}

var greenWaveCmd = &cobra.Command{
	Use:   "greenwave [intersection-id...]",
	Short: "Coordinate a green wave along a corridor",
	Long: `Coordinate a green wave. The corridor is either the intersection IDs in
travel order, a catalog corridor given with --corridor, or a route between
--from and --to over the catalog road network.`,
	RunE: runGreenWave,
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <intersection-id>",
	Short: "List conflicts at one intersection",
	Args:  cobra.ExactArgs(1),
	RunE:  runConflicts,
}

var planCmd = &cobra.Command{
	Use:   "plan <intersection-id>",
	Short: "Show the cycle timeline of one intersection",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

var advisoryCmd = &cobra.Command{
	Use:   "advisory <intersection-id>",
	Short: "Recommend an adaptive speed limit for one intersection",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdvisory,
}

func init() {
	greenWaveCmd.Flags().String("corridor", "", "corridor name; a catalog corridor supplies its intersections and speed")
	greenWaveCmd.Flags().Float64("speed", 0, "target speed in km/h (default is the catalog corridor speed, else 30)")
	greenWaveCmd.Flags().String("from", "", "route start intersection")
	greenWaveCmd.Flags().String("to", "", "route end intersection")

	advisoryCmd.Flags().Float64("free-flow", api.DefaultFreeFlowKmh, "free-flow speed in km/h")

	rootCmd.AddCommand(statusCmd, optimizeCmd, greenWaveCmd, conflictsCmd, planCmd, advisoryCmd)
}

// localCoordinator builds a coordinator from the catalog and applies the
// configured scenario.
func localCoordinator(cmd *cobra.Command) (*coordinator.Coordinator, *config.Catalog, error) {
	scenario, err := loadScenario("")
	if err != nil {
		return nil, nil, err
	}
	return scenarioCoordinator(cmd, scenario)
}

func scenarioCoordinator(cmd *cobra.Command, scenario *config.Scenario) (*coordinator.Coordinator, *config.Catalog, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, nil, err
	}
	coord, err := newCoordinator(cat)
	if err != nil {
		return nil, nil, err
	}

	if scenario != nil {
		readings, err := scenario.TrafficReadings()
		if err != nil {
			return nil, nil, err
		}
		if err := coord.ApplyReadings(cmd.Context(), readings); err != nil {
			return nil, nil, fmt.Errorf("failed to apply scenario: %w", err)
		}
	}
	return coord, cat, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	coord, _, err := localCoordinator(cmd)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		return printJSON(cmd.OutOrStdout(), coord.GetCorridorStatus(args))
	}
	return printJSON(cmd.OutOrStdout(), coord.GetNetworkStatus())
}

func runOptimize(cmd *cobra.Command, args []string) error {
	coord, _, err := localCoordinator(cmd)
	if err != nil {
		return err
	}
	plan, err := coord.OptimizeSignalTiming(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), plan)
}

func runGreenWave(cmd *cobra.Command, args []string) error {
	coord, cat, err := localCoordinator(cmd)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("corridor")
	speed, _ := cmd.Flags().GetFloat64("speed")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	ids := args
	if cor, ok := cat.Corridor(name); ok && len(ids) == 0 && from == "" {
		ids = cor.IntersectionIDs
		if speed == 0 {
			speed = cor.TargetSpeedKmh
		}
	}

	if speed == 0 {
		speed = greenwave.DefaultTargetSpeedKmh
	}

	switch {
	case from != "" || to != "":
		if len(ids) > 0 {
			return fmt.Errorf("give either intersection IDs or --from/--to, not both")
		}
		plan, route, err := coord.CoordinateRoute(cmd.Context(), from, to, name, speed)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), api.GreenWaveResponse{Plan: plan, Route: &route})
	case len(ids) == 0:
		return fmt.Errorf("no corridor: give intersection IDs, a catalog --corridor or --from/--to (known corridors: %s)", corridorNames(cat))
	default:
		plan, err := coord.CoordinateGreenWave(cmd.Context(), ids, name, speed)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), api.GreenWaveResponse{Plan: plan})
	}
}

func corridorNames(cat *config.Catalog) string {
	if len(cat.Corridors) == 0 {
		return "none"
	}
	names := make([]string, 0, len(cat.Corridors))
	for _, c := range cat.Corridors {
		names = append(names, fmt.Sprintf("%q", c.Name))
	}
	return strings.Join(names, ", ")
}

func runConflicts(cmd *cobra.Command, args []string) error {
	coord, _, err := localCoordinator(cmd)
	if err != nil {
		return err
	}
	findings, err := coord.DetectConflicts(args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), findings)
}

func runPlan(cmd *cobra.Command, args []string) error {
	coord, _, err := localCoordinator(cmd)
	if err != nil {
		return err
	}
	plan, err := coord.GenerateSignalPlan(args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), plan)
}

func runAdvisory(cmd *cobra.Command, args []string) error {
	coord, _, err := localCoordinator(cmd)
	if err != nil {
		return err
	}
	freeFlow, _ := cmd.Flags().GetFloat64("free-flow")
	rec, err := coord.SpeedAdvisory(args[0], freeFlow)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), rec)
}
