// Package calibration scores stored predictions against realised results.
package calibration

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/yourusername/clever-goals/internal/models"
)

const logLossEps = 1e-10

// DefaultBins is the number of equal-count reliability bins.
const DefaultBins = 5

// Evaluate computes Brier score, log-loss, per-market Brier and the
// reliability table of a set of resolved predictions.
func Evaluate(preds []models.ResolvedPrediction, nBins int) *models.CalibrationReport {
	if nBins <= 0 {
		nBins = DefaultBins
	}

	brier, n := Brier(preds)
	logLoss, _ := LogLoss(preds)

	report := &models.CalibrationReport{
		N:       n,
		Brier:   brier,
		LogLoss: logLoss,
		Bins:    Bins(preds, nBins),
	}

	market := make(map[models.Market]float64)
	if b, ok := binaryBrier(preds, func(p models.ResolvedPrediction) (*float64, bool) {
		return p.Over25, p.HomeGoals+p.AwayGoals > 2
	}); ok {
		market[models.MarketOver25] = b
	}
	if b, ok := binaryBrier(preds, func(p models.ResolvedPrediction) (*float64, bool) {
		return p.BTTS, p.HomeGoals > 0 && p.AwayGoals > 0
	}); ok {
		market[models.MarketBTTSYes] = b
	}
	if len(market) > 0 {
		report.MarketBrier = market
	}

	return report
}

// Brier is the mean multi-class squared error of the 1X2 probabilities
// against the one-hot realised outcome.
func Brier(preds []models.ResolvedPrediction) (float64, int) {
	if len(preds) == 0 {
		return 0, 0
	}

	var total float64
	for _, p := range preds {
		actual := oneHot(p.HomeGoals, p.AwayGoals)
		predicted := [3]float64{p.HomeWin, p.Draw, p.AwayWin}
		for k := range predicted {
			d := predicted[k] - actual[k]
			total += d * d
		}
	}
	return total / float64(len(preds)), len(preds)
}

// LogLoss is the mean negative log probability given to the realised outcome.
func LogLoss(preds []models.ResolvedPrediction) (float64, int) {
	if len(preds) == 0 {
		return 0, 0
	}

	var total float64
	for _, p := range preds {
		var prob float64
		switch models.OutcomeOf(p.HomeGoals, p.AwayGoals) {
		case "H":
			prob = p.HomeWin
		case "D":
			prob = p.Draw
		default:
			prob = p.AwayWin
		}
		total -= math.Log(math.Max(logLossEps, prob))
	}
	return total / float64(len(preds)), len(preds)
}

type pair struct {
	prob    float64
	outcome float64
}

// Bins sorts every (probability, outcome) pair of the three 1X2 outcomes
// and splits them into nBins equal-count groups; the last bin takes the
// remainder.
func Bins(preds []models.ResolvedPrediction, nBins int) []models.CalibrationBin {
	if len(preds) == 0 || nBins <= 0 {
		return nil
	}

	pairs := make([]pair, 0, 3*len(preds))
	for _, p := range preds {
		actual := oneHot(p.HomeGoals, p.AwayGoals)
		pairs = append(pairs,
			pair{p.HomeWin, actual[0]},
			pair{p.Draw, actual[1]},
			pair{p.AwayWin, actual[2]},
		)
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].prob < pairs[j].prob })

	size := len(pairs) / nBins
	var bins []models.CalibrationBin
	for i := 0; i < nBins; i++ {
		start := i * size
		end := start + size
		if i == nBins-1 {
			end = len(pairs)
		}
		chunk := pairs[start:end]
		if len(chunk) == 0 {
			continue
		}

		var predSum, actualSum float64
		for _, c := range chunk {
			predSum += c.prob
			actualSum += c.outcome
		}
		pred := predSum / float64(len(chunk))
		actual := actualSum / float64(len(chunk))

		bins = append(bins, models.CalibrationBin{
			Range:     fmt.Sprintf("%.0f%%-%.0f%%", chunk[0].prob*100, chunk[len(chunk)-1].prob*100),
			Predicted: pred,
			Actual:    actual,
			Gap:       pred - actual,
			Count:     len(chunk),
		})
	}
	return bins
}

func binaryBrier(preds []models.ResolvedPrediction, pick func(models.ResolvedPrediction) (*float64, bool)) (float64, bool) {
	var total float64
	var n int
	for _, p := range preds {
		prob, happened := pick(p)
		if prob == nil {
			continue
		}
		y := 0.0
		if happened {
			y = 1
		}
		d := *prob - y
		total += d * d
		n++
	}
	if n == 0 {
		return 0, false
	}
	return total / float64(n), true
}

func oneHot(homeGoals, awayGoals int) [3]float64 {
	switch models.OutcomeOf(homeGoals, awayGoals) {
	case "H":
		return [3]float64{1, 0, 0}
	case "D":
		return [3]float64{0, 1, 0}
	default:
		return [3]float64{0, 0, 1}
	}
}

// Quality labels a multi-class Brier score.
func Quality(brier float64) string {
	switch {
	case brier < 0.20:
		return "Excellent"
	case brier < 0.22:
		return "Good"
	case brier < 0.25:
		return "Average"
	default:
		return "Poor"
	}
}

// GapMark labels a bin's calibration gap.
func GapMark(gap float64) string {
	switch g := math.Abs(gap); {
	case g < 0.05:
		return "ok"
	case g < 0.10:
		return "slight"
	default:
		return "miscalibrated"
	}
}

// Render formats a report for operators.
func Render(report *models.CalibrationReport) string {
	if report == nil || report.N == 0 {
		return "No predictions with results yet."
	}

	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "   MODEL CALIBRATION REPORT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "   Predictions evaluated: %d\n\n", report.N)
	fmt.Fprintf(&b, "   Brier Score:  %.4f  %s\n", report.Brier, Quality(report.Brier))
	fmt.Fprintln(&b, "   (Perfect=0.00, Always-33%=0.22)")
	fmt.Fprintf(&b, "   Log-Loss:     %.4f\n", report.LogLoss)

	for _, m := range []models.Market{models.MarketOver25, models.MarketBTTSYes} {
		if v, ok := report.MarketBrier[m]; ok {
			fmt.Fprintf(&b, "   Brier %-8s %.4f\n", string(m)+":", v)
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "   Calibration (predicted vs actual):")
	fmt.Fprintf(&b, "   %-12s %10s %10s %8s %6s\n", "Bin", "Predicted", "Actual", "Gap", "Count")
	fmt.Fprintln(&b, "   "+strings.Repeat("-", 50))
	for _, bin := range report.Bins {
		fmt.Fprintf(&b, "   %-12s %9.1f%% %9.1f%% %+7.1f%% %6d %s\n",
			bin.Range, bin.Predicted*100, bin.Actual*100, bin.Gap*100, bin.Count, GapMark(bin.Gap))
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "   ok = gap under 5%, slight = 5-10%, miscalibrated = over 10%")
	fmt.Fprint(&b, rule)

	return b.String()
}
