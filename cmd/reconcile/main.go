package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sangkips/fieldops-api/internal/application/service"
	"github.com/sangkips/fieldops-api/internal/bootstrap"
	"github.com/sangkips/fieldops-api/internal/config"
	"github.com/sangkips/fieldops-api/internal/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair work order invoiced flags from invoice links",
	Long: `reconcile scans every invoice and flags the work orders it lists that are
not yet marked invoiced. Work orders already held by another invoice are
reported as conflicts and left untouched.`,
	RunE:          runReconcile,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().Bool("dry-run", false, "report findings without writing")
	rootCmd.Flags().Int("workers", 0, "concurrent workers (defaults to RECONCILE_WORKERS)")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := logger.Setup(cfg.Log); err != nil {
		return fmt.Errorf("invalid log configuration: %w", err)
	}
	log := logger.WithComponent("reconcile")

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	workers, _ := cmd.Flags().GetInt("workers")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Invoices.ReconcileWorkOrders(ctx, service.ReconcileOptions{
		DryRun:  dryRun,
		Workers: workers,
	})
	if err != nil {
		return err
	}

	log.Info().
		Bool("dry_run", report.DryRun).
		Int("scanned", report.Scanned).
		Int("repaired", report.Repaired).
		Int("failed", report.Failed).
		Int("conflicts", len(report.Conflicts)).
		Msg("reconciliation finished")

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	return sweepError(report)
}

// sweepError fails the command when any invoice could not be reconciled
func sweepError(report *service.ReconcileReport) error {
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d invoices failed to reconcile", report.Failed, report.Scanned)
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
