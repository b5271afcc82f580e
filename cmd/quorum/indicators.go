package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var indicatorsJSON bool

var indicatorsCmd = &cobra.Command{
	Use:   "indicators SYMBOL",
	Short: "Compute the technical snapshot without convening the committee",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndicators,
}

func init() {
	indicatorsCmd.Flags().BoolVar(&indicatorsJSON, "json", false, "print the snapshot as JSON")
	rootCmd.AddCommand(indicatorsCmd)
}

func runIndicators(cmd *cobra.Command, args []string) error {
	rt, log, err := setup()
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	snap, err := rt.svc.Indicators(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if indicatorsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	fmt.Printf("%s as of %s\n", args[0], snap.AsOf.Format("2006-01-02"))
	fmt.Println(snap.Summary())
	fmt.Printf("Health %d/100, signal %s\n", snap.HealthScore, snap.ActionSignal)
	return nil
}
