package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"GeoTradeAI/internal/anomaly"
	"GeoTradeAI/internal/app"
	"GeoTradeAI/internal/config"
	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/logging"
)

func main() {
	_ = godotenv.Load()

	watch := flag.Bool("watch", false, "re-assess configured routes on a schedule")
	history := flag.Bool("history", false, "review recent reports and flag anomalous risk scores")
	flag.Usage = usage
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = application.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *watch {
		if err := application.Watch(ctx); err != nil {
			logger.Error("watcher stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	if *history {
		reports, findings, err := application.ReviewHistory(ctx)
		if err != nil {
			logger.Error("history review failed", "error", err)
			os.Exit(1)
		}
		printHistory(reports, findings)
		return
	}

	query, err := queryFromArgs(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(2)
	}

	report, err := application.Assess(ctx, query)
	if err != nil {
		logger.Error("assessment failed", "error", err)
		os.Exit(1)
	}

	printReport(report)
	if report.Status == domain.StatusError {
		os.Exit(1)
	}
}

func queryFromArgs(args []string) (domain.Query, error) {
	if len(args) < 2 {
		return domain.Query{}, fmt.Errorf("product and country are required")
	}
	q := domain.Query{Product: args[0], Country: args[1], DaysBack: 7}
	if len(args) > 2 {
		days, err := strconv.Atoi(args[2])
		if err != nil || days <= 0 {
			return domain.Query{}, fmt.Errorf("daysBack must be a positive integer, got %q", args[2])
		}
		q.DaysBack = days
	}
	return q, nil
}

func printReport(r domain.RiskReport) {
	fmt.Printf("Risk assessment: %s from %s\n", r.Product, r.Country)
	fmt.Printf("  Overall risk : %s (%.1f/10)\n", r.OverallRisk, r.RiskScore)
	fmt.Printf("  Events       : %d (duplicates %d, irrelevant %d, unscored %d)\n",
		r.TotalEvents, r.DuplicateCount, r.IrrelevantCount, r.UnscoredCount)
	fmt.Printf("  Weather      : %s (%s)\n", r.Weather.Impact, r.Weather.Description)
	fmt.Printf("  Status       : %s - %s\n", r.Status, r.Message)

	if len(r.TopConcerns) > 0 {
		fmt.Println("  Top concerns:")
		for _, c := range r.TopConcerns {
			fmt.Printf("    - %s\n", c)
		}
	}
	if len(r.RecommendedActions) > 0 {
		fmt.Println("  Recommended actions:")
		for _, a := range r.RecommendedActions {
			fmt.Printf("    - %s\n", a)
		}
	}
}

func printHistory(reports []domain.RiskReport, findings []anomaly.Finding) {
	fmt.Printf("Report history: %d reports reviewed\n", len(reports))
	for _, r := range reports {
		fmt.Printf("  %s  %-30s %-4s %.1f/10 (%s)\n",
			r.GeneratedAt.Format("2006-01-02 15:04"),
			r.Product+" / "+r.Country, r.OverallRisk, r.RiskScore, r.Status)
	}
	if len(findings) == 0 {
		fmt.Println("No anomalous risk scores detected.")
		return
	}
	fmt.Println("Anomalous reports:")
	for _, f := range findings {
		fmt.Printf("  %s %s from %s: score %.1f, z-score %.1f against mean %.1f (sd %.1f)\n",
			f.Report.ID, f.Report.Product, f.Report.Country,
			f.Report.RiskScore, f.ZScore, f.Mean, f.StdDev)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  geotrade [flags] <product> <country> [daysBack]
  geotrade -watch
  geotrade -history

Flags:
`)
	flag.PrintDefaults()
}
