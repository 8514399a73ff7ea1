package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rizki/eskala/internal/config"
	"github.com/rizki/eskala/internal/observability"
	"github.com/rizki/eskala/internal/tracing"
	"github.com/rizki/eskala/pkg/engine"
	"github.com/rizki/eskala/pkg/memory"
	"github.com/rizki/eskala/pkg/responder"
)

var (
	runMetricsAddr string
	runWatch       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Gate a stream of turns from stdin",
	Long: `Read turns as JSON lines from stdin and write one decision per line to
stdout. Each line carries session_id, request, response, and optionally
capabilities; a line without a response gets a canned fallback reply
before scoring. The process keeps session streaks and conversation
memory across lines, so it behaves like live traffic.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "reload escalation rules when the config file changes")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	if err := tracing.Init("eskala"); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.Shutdown(ctx)
	}()

	if err := observability.InitAuditLogger(cfg.Storage.AuditFile); err != nil {
		return fmt.Errorf("failed to initialize audit log: %w", err)
	}
	defer observability.GetAuditLogger().Close()

	eng, err := engine.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	conversations, err := memory.NewManager(cfg, logger)
	if err != nil {
		return err
	}
	fallback := responder.New(logger)

	if runWatch {
		watcher, err := config.NewWatcher(config.NewLoader(cfgFile), logger, eng.ApplyConfig)
		if err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		defer watcher.Stop()
	}

	if runMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler())
		go func() {
			if err := http.ListenAndServe(runMetricsAddr, mux); err != nil {
				logger.Error().Err(err).Str("addr", runMetricsAddr).Msg("Metrics listener stopped")
			}
		}()
		logger.Info().Str("addr", runMetricsAddr).Msg("Serving metrics")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()
	encoder := json.NewEncoder(out)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req engine.Request
		if err := json.Unmarshal(line, &req); err != nil {
			logger.Error().Err(err).Msg("Skipping malformed turn")
			_ = encoder.Encode(map[string]string{"error": fmt.Sprintf("malformed turn: %v", err)})
			continue
		}

		if req.ResponseText == "" {
			reply := fallback.Respond(req.RequestText)
			req.ResponseText = reply.Text
			req.Capabilities = nil
		}

		result, err := eng.EvaluateAndDecide(ctx, req)
		if err != nil {
			_ = encoder.Encode(map[string]string{"error": err.Error()})
			continue
		}

		conversations.Get(req.SessionID).Append(ctx, memory.Exchange{
			Timestamp:    time.Now().UTC(),
			UserInput:    req.RequestText,
			Response:     req.ResponseText,
			Capabilities: req.Capabilities,
			Confidence:   result.Confidence,
		})

		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to write decision: %w", err)
		}
	}

	for sessionID, history := range conversations.Drain() {
		logger.Debug().
			Str("session_id", sessionID).
			Str("history", history).
			Msg("Session conversation closed")
	}
	return scanner.Err()
}
