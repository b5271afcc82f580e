package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/newthinker/quorum/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	evaluateJSON    bool
	evaluateTimeout time.Duration
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate SYMBOL [SYMBOL...]",
	Short: "Run the full committee evaluation for symbols",
	Long: `Fetch price history, compute technical indicators, convene the committee
and reconcile a strategy for each symbol. Results are published to the
configured sinks and printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "print full evaluations as JSON")
	evaluateCmd.Flags().DurationVar(&evaluateTimeout, "timeout", 10*time.Minute, "overall deadline")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	rt, log, err := setup()
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	ctx, cancel := context.WithTimeout(cmd.Context(), evaluateTimeout)
	defer cancel()

	failed := 0
	for _, symbol := range args {
		eval, err := rt.svc.Evaluate(ctx, symbol)
		if err != nil {
			log.Error("evaluation failed", zap.String("symbol", symbol), zap.Error(err))
			failed++
			continue
		}
		if err := printEvaluation(eval); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d evaluations failed", failed, len(args))
	}
	return nil
}

func printEvaluation(e report.Evaluation) error {
	if evaluateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(e)
	}

	fmt.Printf("=== %s %s (%s) ===\n", e.Symbol, e.Name, e.Market)
	fmt.Printf("Technical:  %s\n", e.Technical.Summary())
	fmt.Println("Committee:")
	for _, op := range e.Committee.Opinions {
		status := "unavailable"
		if op.Available {
			status = fmt.Sprintf("%s %d", op.Decision, op.Score)
		}
		fmt.Printf("  %-12s %s\n", op.Role, status)
	}
	fmt.Printf("Verdict:    %s, composite %d, %d★ (%s)\n",
		e.Committee.Verdict, e.Committee.CompositeScore, e.Committee.ConvictionStars, e.Committee.Source)
	fmt.Printf("Rationale:  %s\n", e.Committee.Rationale)
	fmt.Printf("Strategy:   %s - %s (%d★, %s)\n", e.Strategy.StrategyType, e.Strategy.Title, e.Strategy.Conviction, e.Strategy.Source)
	fmt.Printf("  Position: %s\n", e.Strategy.PositionSuggest)
	fmt.Printf("  Action:   %s\n", e.Strategy.ActionGuide)
	fmt.Printf("  Risk:     %s\n", e.Strategy.RiskWarning)
	fmt.Printf("  Horizon:  %s\n", e.Strategy.TimeFrame)
	fmt.Println()
	return nil
}
