package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/tatianab/ghg-game/internal/config"
	"github.com/tatianab/ghg-game/internal/engine"
	"github.com/tatianab/ghg-game/internal/logger"
	"github.com/tatianab/ghg-game/internal/models"
	"github.com/tatianab/ghg-game/internal/outcome"
	"github.com/tatianab/ghg-game/internal/simclient"
	"github.com/tatianab/ghg-game/internal/store"
	"github.com/tatianab/ghg-game/internal/tui"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "history":
			if err := printHistory(os.Stdout, cfg.SaveDir); err != nil {
				fmt.Printf("Error listing history: %v\n", err)
				os.Exit(1)
			}
			return
		default:
			fmt.Printf("Unknown command %q. Usage: game [history]\n", os.Args[1])
			os.Exit(2)
		}
	}

	if err := run(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log := logger.Setup(cfg.Logger(), logFile)

	client := simclient.New(simclient.Config{
		BaseURL:   cfg.SimulatorURL,
		UserAgent: "ghg-game/" + config.Version,
	})

	eng, err := engine.NewEngine(client, engine.Rules{
		FinalYear:     cfg.FinalYear,
		YearIncrement: cfg.YearIncrement,
		RoundTimeout:  cfg.RoundTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	results, err := store.New(cfg.ResultsDB)
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	defer results.Close()

	log.Info("starting game", "simulator", cfg.SimulatorURL, "final_year", cfg.FinalYear)
	return tui.Run(tui.Options{
		Engine:         eng,
		Ledger:         results,
		SaveDir:        cfg.SaveDir,
		CertificateDir: cfg.CertificateDir,
		Log:            log,
	})
}

// printHistory lists saved transcripts, oldest first.
func printHistory(w io.Writer, saveDir string) error {
	ids, err := models.ListSessions(saveDir)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No saved games.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UPDATED\tPLAYER\tSTATUS\tROUNDS\tGHG\tCERTIFICATE")
	for _, id := range ids {
		s, err := models.LoadSession(saveDir, id)
		if err != nil {
			fmt.Fprintf(tw, "-\t%s\tunreadable\t-\t-\t-\n", id)
			continue
		}
		ghg, tier := fmt.Sprintf("%.1f", s.LatestGHG()), "-"
		if s.Status == models.StatusCompleted {
			if out, err := outcome.Aggregate(s.History); err == nil {
				ghg, tier = fmt.Sprintf("%.1f", out.FinalMetric), out.CertificateTier
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.UpdatedAt.Format("2006-01-02 15:04"), s.PlayerName, s.Status, len(s.History), ghg, tier)
	}
	return tw.Flush()
}
