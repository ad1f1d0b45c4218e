package feedback

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/ai/tokencount"
)

const jsonSystemPrompt = `You are a placement-test coach. Respond with a single JSON object:
{"overall": string, "strengths": [string], "focus_areas": [string], "study_plan": string}
No prose outside the JSON object.`

const textSystemPrompt = `You are a placement-test coach. Respond with a plain-text report using
exactly these section headers: "Category Breakdown", "Summary", "Most Focus Needed",
and a closing study-time recommendation. Treat scores >=80% as excellent, >=60% as good,
>=40% as fair, below 40% as needing fundamentals; recommend 1 hour daily above 70%,
otherwise 2-3 hours daily.`

// BuildPrompt renders the statistics into the user prompt. The wrong-question
// section is trimmed from the tail until the whole prompt fits tokenBudget, so
// oversized submissions cannot blow past the model's context window.
func BuildPrompt(in Input, tokenBudget int) string {
	base := promptHeader(in)
	lines := wrongQuestionLines(in)

	for {
		prompt := base
		if len(lines) > 0 {
			prompt += "\nIncorrectly answered questions:\n" + strings.Join(lines, "\n") + "\n"
		}
		if tokenBudget <= 0 || tokencount.DefaultCounter.Count(prompt) <= tokenBudget || len(lines) == 0 {
			return prompt
		}
		lines = lines[:len(lines)-1]
	}
}

func promptHeader(in Input) string {
	var b strings.Builder
	title := in.TestTitle
	if title == "" {
		title = "Assessment"
	}
	fmt.Fprintf(&b, "Test: %s\n", title)
	fmt.Fprintf(&b, "Score: %d correct of %d (%d%%), %d wrong.\n", in.Correct, in.TotalQuestions, in.ScorePercent, in.WrongCount)

	if len(in.Breakdown) > 0 {
		b.WriteString("Category breakdown:\n")
		cats := make([]string, 0, len(in.Breakdown))
		for cat := range in.Breakdown {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			st := in.Breakdown[cat]
			fmt.Fprintf(&b, "- %s: %d/%d (%d%%)\n", cat, st.Correct, st.Total, st.Percentage)
		}
	}
	return b.String()
}

func wrongQuestionLines(in Input) []string {
	lines := make([]string, 0, len(in.WrongQuestions))
	for _, wq := range in.WrongQuestions {
		lines = append(lines, fmt.Sprintf("- Q: %s | answered: %s | correct: %s", wq.Question, wq.UserAnswer, wq.CorrectAnswer))
	}
	return lines
}
