package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rizki/eskala/internal/config"
	"github.com/rizki/eskala/internal/logger"
	"github.com/rizki/eskala/pkg/engine"
)

var (
	evaluateSession      string
	evaluateRequest      string
	evaluateResponse     string
	evaluateCapabilities []string
	evaluateElapsed      time.Duration
	evaluateRepeated     bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score one turn and print the escalation decision",
	Long: `Evaluate one completed request/response exchange against the configured
escalation rules and print the decision as JSON. The turn is recorded
against the session, so repeated invocations with the same --session
build up fallback and repeat streaks exactly as live traffic would.`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateSession, "session", "", "session identifier (required)")
	evaluateCmd.Flags().StringVar(&evaluateRequest, "request", "", "the user's request text")
	evaluateCmd.Flags().StringVar(&evaluateResponse, "response", "", "the assistant's response text")
	evaluateCmd.Flags().StringSliceVar(&evaluateCapabilities, "capability", nil, "capability invoked for this turn (repeatable)")
	evaluateCmd.Flags().DurationVar(&evaluateElapsed, "elapsed", 0, "how long the response took")
	evaluateCmd.Flags().BoolVar(&evaluateRepeated, "repeated", false, "mark this request as a repeat of the previous one")
	_ = evaluateCmd.MarkFlagRequired("session")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	eng, err := engine.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	result, err := eng.EvaluateAndDecide(context.Background(), engine.Request{
		SessionID:         evaluateSession,
		RequestText:       evaluateRequest,
		ResponseText:      evaluateResponse,
		Capabilities:      evaluateCapabilities,
		Elapsed:           evaluateElapsed,
		IsRepeatedRequest: evaluateRepeated,
	})
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	if rootCmd.PersistentFlags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	lg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, lg.Zerolog(), nil
}
