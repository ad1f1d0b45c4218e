package feedback

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/fairyhunter13/ai-placement-coach/internal/scoring"
)

// Percentage breakpoints shared by the AI prompt guidance and the fallback
// report. They must stay in sync so both paths read the same bands.
const (
	bandExcellent = 80
	bandStrong    = 70
	bandGood      = 60
	bandWeak      = 40
)

// CategoryAccuracy is one row of the fallback per-category breakdown.
type CategoryAccuracy struct {
	Category string
	Wrong    int
	EstTotal int
	Accuracy int
}

// FallbackStats re-derives category statistics from the wrong-question list
// alone. True per-category totals are not available on this path, so the
// total per category is estimated as ceil(totalQuestions/distinctCategories).
// This is a documented lossy approximation, not a bug. Rows are ranked by
// ascending accuracy so the weakest category leads.
func FallbackStats(in Input) []CategoryAccuracy {
	wrongPerCategory := map[string]int{}
	order := []string{}
	for _, wq := range in.WrongQuestions {
		cat := wq.Category
		if cat == "" {
			cat = scoring.Categorize(wq.Question)
		}
		if _, seen := wrongPerCategory[cat]; !seen {
			order = append(order, cat)
		}
		wrongPerCategory[cat]++
	}
	if len(order) == 0 {
		return nil
	}

	estTotal := int(math.Ceil(float64(in.TotalQuestions) / float64(len(order))))
	if estTotal < 1 {
		estTotal = 1
	}

	stats := make([]CategoryAccuracy, 0, len(order))
	for _, cat := range order {
		wrong := wrongPerCategory[cat]
		correct := estTotal - wrong
		if correct < 0 {
			correct = 0
		}
		stats = append(stats, CategoryAccuracy{
			Category: cat,
			Wrong:    wrong,
			EstTotal: estTotal,
			Accuracy: scoring.RoundPercent(correct, estTotal),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Accuracy < stats[j].Accuracy })
	return stats
}

func overallSentence(pct int) string {
	switch {
	case pct >= bandExcellent:
		return fmt.Sprintf("Excellent performance at %d%%. You are well prepared; keep polishing the few weak spots below.", pct)
	case pct >= bandGood:
		return fmt.Sprintf("Good performance at %d%%. You clear the bar, but consistent practice in the focus areas will make you safer.", pct)
	case pct >= bandWeak:
		return fmt.Sprintf("Fair performance at %d%%. Core concepts need reinforcement before the next attempt.", pct)
	default:
		return fmt.Sprintf("Score of %d%% signals fundamental gaps. Restart preparation from basics in the focus areas below.", pct)
	}
}

func studyRecommendation(pct int) string {
	if pct >= bandStrong {
		return "Recommended study time: 1 hour daily, focused on your weakest category."
	}
	return "Recommended study time: 2-3 hours daily until your weakest categories reach 70% accuracy."
}

// FallbackReport renders the deterministic multi-section coaching report.
// Section headers and band sentences are fixed templates so the output is
// stable across runs and matches the structure the AI path is asked for.
func FallbackReport(in Input) string {
	var b strings.Builder
	title := in.TestTitle
	if title == "" {
		title = "Assessment"
	}
	fmt.Fprintf(&b, "Performance Report: %s\n", title)
	fmt.Fprintf(&b, "Score: %d/%d (%d%%)\n\n", in.Correct, in.TotalQuestions, in.ScorePercent)

	stats := FallbackStats(in)

	b.WriteString("Category Breakdown\n")
	if len(stats) == 0 {
		b.WriteString("- No incorrect answers recorded. Well done!\n")
	}
	for _, cs := range stats {
		fmt.Fprintf(&b, "- %s: %d wrong of ~%d (%d%% accuracy)\n", cs.Category, cs.Wrong, cs.EstTotal, cs.Accuracy)
	}

	b.WriteString("\nSummary\n")
	b.WriteString(overallSentence(in.ScorePercent))
	b.WriteString("\n")

	if len(stats) > 0 {
		b.WriteString("\nMost Focus Needed\n")
		for i, cs := range stats {
			fmt.Fprintf(&b, "%d. %s (%d%% accuracy)\n", i+1, cs.Category, cs.Accuracy)
		}
	}

	b.WriteString("\n")
	b.WriteString(studyRecommendation(in.ScorePercent))
	b.WriteString("\n")
	return b.String()
}
