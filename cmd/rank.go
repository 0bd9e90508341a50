package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swarmsync/fleetd/core/fleet"
	"github.com/swarmsync/fleetd/core/forest"
	"github.com/swarmsync/fleetd/core/model"
	"github.com/swarmsync/fleetd/core/rank"
	"github.com/swarmsync/fleetd/infra/logger"
)

var (
	rankLat     float64
	rankLng     float64
	rankUrgency string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank trucks for a breakdown without starting the server",
	RunE:  runRank,
}

func init() {
	rankCmd.Flags().Float64Var(&rankLat, "lat", 0, "breakdown latitude")
	rankCmd.Flags().Float64Var(&rankLng, "lng", 0, "breakdown longitude")
	rankCmd.Flags().StringVar(&rankUrgency, "urgency", "medium", "breakdown urgency (low, medium, high)")
	if err := rankCmd.MarkFlagRequired("lat"); err != nil {
		panic(err)
	}
	if err := rankCmd.MarkFlagRequired("lng"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	trucks, err := fleet.LoadSeed(cfg.Fleet.SeedPath)
	if err != nil {
		return fmt.Errorf("seed fleet: %w", err)
	}

	var scorer rank.Scorer = rank.HeuristicScorer{}
	if cfg.Model.Path != "" {
		if artifact, err := forest.Load(cfg.Model.Path); err == nil {
			scorer = rank.NewModelScorer(artifact, logger.NopLogger{})
		}
	}
	engine := rank.NewEngine(scorer, 0, logger.NopLogger{})

	report := model.BreakdownReport{Lat: rankLat, Lng: rankLng, Urgency: model.Urgency(rankUrgency)}
	if err := report.Validate(); err != nil {
		return err
	}

	cands := engine.Rank(report, trucks)
	if len(cands) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no dispatchable trucks")
		return nil
	}
	for i, c := range cands {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s %s score=%.3f distance=%.2fkm eta=%dmin (%s)\n",
			i+1, c.TruckID, c.Truck.Driver, c.Score, c.DistanceKM, c.ETAMinutes, c.Method)
	}
	return nil
}
