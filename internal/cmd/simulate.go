package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/SentientSignals/internal/conflict"
	"github.com/AaronLay10/SentientSignals/internal/greenwave"
	"github.com/AaronLay10/SentientSignals/internal/network"
	"github.com/AaronLay10/SentientSignals/internal/optimizer"
)

// SimulationReport is the outcome of one simulate run.
type SimulationReport struct {
	Scenario   string                            `json:"scenario"`
	Network    network.NetworkStatus             `json:"network"`
	Timings    []optimizer.TimingPlan            `json:"timings"`
	GreenWaves []greenwave.Plan                  `json:"green_waves"`
	Conflicts  map[string][]conflict.Finding     `json:"conflicts"`
	Corridors  map[string]network.CorridorStatus `json:"corridors"`
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a scenario and run every coordination step",
	Long: `Apply a scenario (the built-in morning peak unless --scenario is set),
optimize every intersection, coordinate every catalog corridor and report
conflicts and corridor status.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario("default")
	if err != nil {
		return err
	}
	coord, cat, err := scenarioCoordinator(cmd, scenario)
	if err != nil {
		return err
	}

	report := SimulationReport{
		Scenario:  scenario.Name,
		Network:   coord.GetNetworkStatus(),
		Conflicts: make(map[string][]conflict.Finding),
		Corridors: make(map[string]network.CorridorStatus),
	}

	ids := coord.Registry().IDs()
	for _, id := range ids {
		plan, err := coord.OptimizeSignalTiming(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("optimize %s: %w", id, err)
		}
		report.Timings = append(report.Timings, plan)
	}

	for _, cor := range cat.Corridors {
		plan, err := coord.CoordinateGreenWave(cmd.Context(), cor.IntersectionIDs, cor.Name, cor.TargetSpeedKmh)
		if err != nil {
			return fmt.Errorf("corridor %q: %w", cor.Name, err)
		}
		report.GreenWaves = append(report.GreenWaves, plan)
		report.Corridors[cor.Name] = coord.GetCorridorStatus(cor.IntersectionIDs)
	}

	for _, id := range ids {
		findings, err := coord.DetectConflicts(id)
		if err != nil {
			return err
		}
		if len(findings) > 0 {
			report.Conflicts[id] = findings
		}
	}

	return printJSON(cmd.OutOrStdout(), report)
}
