package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rizki/eskala/pkg/escalation"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the escalation ledger",
	Long: `Replay the persisted escalation ledger and print aggregate statistics:
total escalations, the breakdown by type and priority, and the average
confidence score of escalated turns.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	records, err := escalation.ReplaySink(cfg.Storage.LedgerFile, logger)
	if err != nil {
		return fmt.Errorf("failed to read escalation ledger: %w", err)
	}

	ledger := escalation.NewLedger(zerolog.Nop(), nil)
	ledger.Load(records)
	stats := ledger.Stats(cfg.Escalation.ConfidenceThreshold)

	output, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render stats: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}
