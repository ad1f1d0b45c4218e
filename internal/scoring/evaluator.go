package scoring

import (
	"math"

	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

// Evaluation is the full outcome of scoring one submission against its
// answer key.
type Evaluation struct {
	TotalCorrect   int
	TotalQuestions int
	Breakdown      domain.CategoryBreakdown
	Wrong          []domain.WrongQuestion
}

// Percentage returns the overall rounded percentage; zero questions yields 0,
// never NaN.
func (e Evaluation) Percentage() int {
	return RoundPercent(e.TotalCorrect, e.TotalQuestions)
}

// RoundPercent computes round(correct/total*100) guarding divide-by-zero.
func RoundPercent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// Evaluate scores the submitted answers against the question list. A question
// is correct iff it defines a correct option and the user's answer text equals
// that option's text exactly. Missing answers are incorrect and recorded as
// domain.NotAnswered. Questions without a stored category fall under
// CategoryGeneral.
func Evaluate(questions []domain.Question, answers domain.AnswerSet) Evaluation {
	ev := Evaluation{
		TotalQuestions: len(questions),
		Breakdown:      domain.CategoryBreakdown{},
	}
	for _, q := range questions {
		category := q.Category
		if category == "" {
			category = CategoryGeneral
		}

		correctText, hasCorrect := correctOption(q)
		userAnswer, answered := answers[q.ID]
		if userAnswer == "" {
			answered = false
		}
		if !answered {
			userAnswer = domain.NotAnswered
		}
		correct := hasCorrect && answered && userAnswer == correctText

		stat := ev.Breakdown[category]
		stat.Total++
		if correct {
			stat.Correct++
			ev.TotalCorrect++
		} else {
			ev.Wrong = append(ev.Wrong, domain.WrongQuestion{
				Question:      q.Text,
				UserAnswer:    userAnswer,
				CorrectAnswer: correctText,
				Category:      category,
			})
		}
		ev.Breakdown[category] = stat
	}
	for cat, stat := range ev.Breakdown {
		stat.Percentage = RoundPercent(stat.Correct, stat.Total)
		ev.Breakdown[cat] = stat
	}
	return ev
}

func correctOption(q domain.Question) (string, bool) {
	for _, o := range q.Options {
		if o.Correct {
			return o.Text, true
		}
	}
	return "", false
}
