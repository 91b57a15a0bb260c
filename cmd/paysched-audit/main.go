// Command paysched-audit runs a one-shot configuration audit and prints the
// report. With -apply it also applies the recommended fixes, and with
// -rewrite it additionally rewrites the scheduled dates of the affected
// transactions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"paysched/internal/config"
	"paysched/internal/services"
	"paysched/internal/storage"
)

func main() {
	apply := flag.Bool("apply", false, "apply the recommended fixes")
	rewrite := flag.Bool("rewrite", false, "also rewrite scheduled dates of affected transactions (requires -apply)")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "configuration validation failed:", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()
	audit := services.NewAuditService(repo)

	report, err := audit.Analyze(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "audit failed:", err)
		os.Exit(1)
	}
	printJSON("report", report)

	if report.Summary.ProblematicAccounts == 0 {
		fmt.Println("no configuration issues found")
		return
	}

	fixes, err := audit.RecommendFixes(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fix recommendation failed:", err)
		os.Exit(1)
	}
	printJSON("fixes", fixes)

	affected, err := audit.AffectedTransactions(ctx, fixes)
	if err != nil {
		fmt.Fprintln(os.Stderr, "affected preview failed:", err)
		os.Exit(1)
	}
	printJSON("affected", affected)

	if !*apply {
		fmt.Println("dry run: pass -apply to write these fixes")
		return
	}

	result, err := audit.ApplyFixes(ctx, fixes, *rewrite)
	if err != nil {
		fmt.Fprintln(os.Stderr, "apply failed:", err)
		os.Exit(1)
	}
	printJSON("result", result)
}

func printJSON(label string, v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode", label, "failed:", err)
		os.Exit(1)
	}
	fmt.Printf("%s:\n%s\n", label, out)
}
