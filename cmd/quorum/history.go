package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history SYMBOL",
	Short: "List archived evaluations for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum entries, 0 for all")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	rt, log, err := setup()
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	if rt.archive == nil {
		return errors.New("no archive configured (output.archive.type)")
	}

	evals, err := rt.archive.History(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return err
	}
	if len(evals) == 0 {
		fmt.Printf("no archived evaluations for %s\n", args[0])
		return nil
	}
	for _, e := range evals {
		fmt.Printf("%s  %s\n", e.GeneratedAt.Format("2006-01-02 15:04"), e.Headline())
	}
	return nil
}
