package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swarmsync/fleetd/core/fleet"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the seed fleet",
	RunE:  runFleetLs,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	trucks, err := fleet.LoadSeed(cfg.Fleet.SeedPath)
	if err != nil {
		return fmt.Errorf("seed fleet: %w", err)
	}
	for _, t := range trucks {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tfuel=%.0f%%\t(%.4f, %.4f)\n",
			t.ID, t.Driver, t.Status, t.Fuel, t.Lat, t.Lng)
	}
	return nil
}
