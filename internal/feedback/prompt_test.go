package feedback

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

func TestBuildPromptContainsStats(t *testing.T) {
	t.Parallel()
	in := sampleInput()
	in.Breakdown = domain.CategoryBreakdown{
		"Quantitative Aptitude": {Correct: 1, Total: 4, Percentage: 25},
	}
	prompt := BuildPrompt(in, 0)

	assert.Contains(t, prompt, "Test: TCS Foundation")
	assert.Contains(t, prompt, "Score: 5 correct of 10 (50%), 5 wrong.")
	assert.Contains(t, prompt, "- Quantitative Aptitude: 1/4 (25%)")
	assert.Contains(t, prompt, "Incorrectly answered questions:")
	assert.Contains(t, prompt, "- Q: q1 | answered: a | correct: b")
}

func TestBuildPromptTrimsToBudget(t *testing.T) {
	t.Parallel()
	in := Input{TestTitle: "Big", TotalQuestions: 500}
	for i := 0; i < 500; i++ {
		in.WrongQuestions = append(in.WrongQuestions, domain.WrongQuestion{
			Question:      fmt.Sprintf("question number %d with a fairly long body to inflate the token count", i),
			UserAnswer:    "wrong",
			CorrectAnswer: "right",
		})
	}

	budget := 200
	prompt := BuildPrompt(in, budget)

	assert.LessOrEqual(t, tokencount.DefaultCounter.Count(prompt), budget)
	// Trimming drops from the tail, so the earliest questions survive.
	assert.Contains(t, prompt, "question number 0")
	assert.NotContains(t, prompt, "question number 499")
}

func TestBuildPromptHeaderSurvivesZeroBudget(t *testing.T) {
	t.Parallel()
	in := sampleInput()
	prompt := BuildPrompt(in, 1)
	// The header is never trimmed, only the wrong-question list is.
	assert.True(t, strings.HasPrefix(prompt, "Test: TCS Foundation"))
	assert.NotContains(t, prompt, "Incorrectly answered questions:")
}
