package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/clever-goals/internal/api"
	"github.com/yourusername/clever-goals/internal/calibration"
	"github.com/yourusername/clever-goals/internal/fitter"
	"github.com/yourusername/clever-goals/internal/metrics"
	"github.com/yourusername/clever-goals/internal/models"
	"github.com/yourusername/clever-goals/internal/scheduler"
	"github.com/yourusername/clever-goals/internal/service"
)

var (
	importFile   string
	fitLeagues   []string
	fixturesFile string
	bankroll     float64
	record       bool
	calLeague    string
)

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "JSON array of match records")
	_ = importCmd.MarkFlagRequired("file")

	fitCmd.Flags().StringSliceVarP(&fitLeagues, "league", "l", nil, "Leagues to fit (default: every league in the history)")

	valueCmd.Flags().StringVarP(&fixturesFile, "fixtures", "f", "", "JSON array of fixtures with odds")
	valueCmd.Flags().Float64VarP(&bankroll, "bankroll", "b", 0, "Bankroll to stake against (default: bankroll.amount)")
	valueCmd.Flags().BoolVar(&record, "record", false, "Store predictions for later calibration")
	_ = valueCmd.MarkFlagRequired("fixtures")

	calibrateCmd.Flags().StringVarP(&calLeague, "league", "l", "", "Restrict to one league")
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import fixtures and results into the match history",
	RunE: func(cmd *cobra.Command, args []string) error {
		var records []models.MatchRecord
		if err := readJSON(importFile, &records); err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ingest := service.NewIngestionService(a.repos.Matches, service.NewDataValidator(log), service.NewDataNormalizer(nil, log), log)
		m, err := ingest.Import(cmd.Context(), records)
		if err != nil {
			return err
		}
		fmt.Println(m.String())

		summary, err := a.analysis.Summary(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("History: %d matches, %d finished, %d predictions, leagues %s\n",
			summary.TotalMatches, summary.FinishedMatches, summary.Predictions, strings.Join(summary.Leagues, ", "))
		return nil
	},
}

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit Dixon-Coles parameters and persist them",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.analysis.Refit(cmd.Context(), fitLeagues)
		if report != nil {
			printFitReport(report)
		}
		return err
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <league> <home> <away>",
	Short: "Predict one match",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		pred, err := a.analysis.Engine().PredictMatch(args[0], args[1], args[2])
		if errors.Is(err, models.ErrUnknownTeam) {
			return fmt.Errorf("%w (fit the league or pass --stats)", err)
		}
		if err != nil {
			return err
		}
		printPrediction(pred)
		return nil
	},
}

var valueCmd = &cobra.Command{
	Use:   "value",
	Short: "Find value bets in a slate and plan stakes",
	RunE: func(cmd *cobra.Command, args []string) error {
		var fixtures []models.Fixture
		if err := readJSON(fixturesFile, &fixtures); err != nil {
			return err
		}
		if bankroll <= 0 {
			bankroll = cfg.Bankroll.Amount
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.analysis.Analyze(cmd.Context(), fixtures, bankroll, record)
		if out != nil {
			printSlate(out)
		}
		return err
	},
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Score stored predictions against results",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.analysis.Calibrate(cmd.Context(), calLeague)
		if err != nil {
			return err
		}
		fmt.Println(calibration.Render(report))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run scheduled refits",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		metricsPath := ""
		if cfg.Metrics.Enabled {
			metrics.InitRegistry()
			metricsPath = cfg.Metrics.Path
		}

		server := api.NewServer(api.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Port:        cfg.Server.Port,
			MetricsPath: metricsPath,
			Bankroll:    cfg.Bankroll.Amount,
			Logger:      log,
			DB:          a,
			Analysis:    a.analysis,
		})
		if err := server.Start(ctx); err != nil {
			return err
		}

		var sched *scheduler.Scheduler
		if cfg.Schedule.Enabled {
			sched = scheduler.NewScheduler(a.analysis, log)
			if err := sched.ScheduleRefit(cfg.Schedule.RefitCron, cfg.Leagues, cfg.RefitTimeout()); err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
		}

		server.SetReady(true)
		log.WithField("port", cfg.Server.Port).Info("clever-goals serving")

		<-ctx.Done()
		server.SetReady(false)

		if sched != nil {
			if err := sched.Stop(); err != nil {
				log.WithError(err).Warn("Scheduler did not stop cleanly")
			}
		}
		return server.Shutdown()
	},
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func printFitReport(report *fitter.FitReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LEAGUE\tTEAMS\tMATCHES\tHOME ADV\tRHO\tLOG-LIK\tCONVERGED")

	leagues := make([]string, 0, len(report.Params))
	for league := range report.Params {
		leagues = append(leagues, league)
	}
	sort.Strings(leagues)
	for _, league := range leagues {
		p := report.Params[league]
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\t%.3f\t%.1f\t%v\n",
			league, p.NTeams, p.NMatches, p.HomeAdvantage, p.Rho, p.LogLikelihood, p.Converged)
	}
	_ = w.Flush()

	for league, err := range report.Failed {
		fmt.Printf("  %s: %v\n", league, err)
	}
}

func printPrediction(p *models.MatchPrediction) {
	fmt.Printf("%s vs %s (%s, %s)\n", p.Home, p.Away, p.League, p.Source)
	fmt.Printf("  xG          %.2f - %.2f  (rho %.3f)\n", p.HomeXG, p.AwayXG, p.RhoUsed)
	fmt.Printf("  1 / X / 2   %.1f%% / %.1f%% / %.1f%%\n", p.HomeWin*100, p.Draw*100, p.AwayWin*100)
	fmt.Printf("  Over 2.5    %.1f%%\n", p.Over25*100)
	fmt.Printf("  BTTS        %.1f%%\n", p.BTTS*100)
	fmt.Printf("  Most likely %s (%.1f%%)\n", p.MostLikelyScore, p.MostLikelyScoreProb*100)
}

func printSlate(out *service.SlateAnalysis) {
	for _, fa := range out.Fixtures {
		p := fa.Prediction
		fmt.Printf("%-40s 1 %.2f  X %.2f  2 %.2f  O2.5 %.2f  BTTS %.2f  [%s]\n",
			fa.Fixture.Key(), p.HomeWin, p.Draw, p.AwayWin, p.Over25, p.BTTS, p.Source)
	}
	for _, s := range out.Skipped {
		fmt.Printf("skipped %s: %s\n", s.Fixture.Key(), s.Reason)
	}

	plan := out.Plan
	fmt.Printf("\nStake plan (bankroll %s, daily cap %s)\n", plan.Bankroll.StringFixed(2), plan.DailyCap.StringFixed(2))
	if len(plan.Bets) == 0 {
		fmt.Println("  No value bets.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MATCH\tMARKET\tODDS\tPROB\tEV\tSTAKE")
	for _, b := range plan.Bets {
		c := b.Candidate
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.3f\t%+.3f\t%s\n", b.MatchKey, c.Market, c.Odds, c.Probability, c.EV, b.Stake.StringFixed(2))
	}
	_ = w.Flush()
	fmt.Printf("  Total %s\n", plan.TotalStake.StringFixed(2))

	if len(plan.Rejected) > 0 {
		reasons := make([]string, 0, len(plan.Rejected))
		for _, r := range plan.Rejected {
			reasons = append(reasons, fmt.Sprintf("%s %s (%s)", r.MatchKey, r.Candidate.Market, r.Reason))
		}
		fmt.Printf("  Rejected: %s\n", strings.Join(reasons, "; "))
	}
}
