// Package scoring contains the pure answer-scoring and question
// categorization routines. Everything here is deterministic and safe to call
// concurrently; no state is shared between calls.
package scoring

import (
	"regexp"
	"strings"
)

// Category labels produced by Categorize. The enumeration order below is part
// of the contract: ties resolve to the first label reaching the maximum score.
const (
	CategoryQuantitative     = "Quantitative Aptitude"
	CategoryLogical          = "Logical Reasoning"
	CategoryVerbal           = "Verbal & Reading"
	CategoryCoding           = "Programming/Coding"
	CategoryDataInterp       = "Data Interpretation"
	CategoryGeneralReasoning = "General Reasoning"
	CategoryGeneralKnowledge = "General Knowledge"
)

// CategoryGeneral is the evaluator default for questions whose stored
// category is absent. It is not a categorizer output.
const CategoryGeneral = "General"

// keywordWeight is the constant score contributed by every keyword hit.
const keywordWeight = 2

// shortTextLimit is the length under which an unmatched question is assumed
// to be a terse reasoning item.
const shortTextLimit = 100

var categoryOrder = []string{
	CategoryQuantitative,
	CategoryLogical,
	CategoryVerbal,
	CategoryCoding,
	CategoryDataInterp,
	CategoryGeneralReasoning,
	CategoryGeneralKnowledge,
}

// categoryKeywords holds the fixed keyword regexps per category. Patterns are
// matched against lower-cased text, so they are all lower-case.
var categoryKeywords = map[string][]*regexp.Regexp{
	CategoryQuantitative: compileAll(
		`\bpercent(?:age)?\b`,
		`\bprofit\b`,
		`\bloss\b`,
		`\bratio\b`,
		`\binterest\b`,
		`\baverage\b`,
		`\bspeed\b`,
		`\bdistance\b`,
		`\btrain\b`,
		`\bcost\b`,
		`\bsell(?:ing)?\b`,
		`\bsold\b`,
		`\bfraction\b`,
		`\bdiscount\b`,
		`\blcm\b`,
		`\bhcf\b`,
		`\bdivisible\b`,
		`\bcompound\b`,
		`\bsimple equation\b`,
	),
	CategoryLogical: compileAll(
		`\bseries\b`,
		`\bsequence\b`,
		`\bnext term\b`,
		`\bblood relation\b`,
		`\bsyllogism\b`,
		`\bstatement\b`,
		`\bconclusion\b`,
		`\barrangement\b`,
		`\banalogy\b`,
		`\bodd one out\b`,
		`\bpuzzle\b`,
		`\bdirection\b`,
		`\bmirror image\b`,
	),
	CategoryVerbal: compileAll(
		`\bsynonym\b`,
		`\bantonym\b`,
		`\bpassage\b`,
		`\bgrammar\b`,
		`\bsentence\b`,
		`\bvocabulary\b`,
		`\bcomprehension\b`,
		`\bidiom\b`,
		`\bphrase\b`,
		`\berror spotting\b`,
		`\bfill in the blank\b`,
	),
	CategoryCoding: compileAll(
		`\bprogram\b`,
		`\bfunction\b`,
		`\balgorithm\b`,
		`\bcode\b`,
		`\boutput of\b`,
		`\barray\b`,
		`\bstring\b`,
		`\bloop\b`,
		`\brecursion\b`,
		`\bcomplexity\b`,
		`\bdata structure\b`,
		`\bcompile\b`,
		`\bpointer\b`,
		`\bvariable\b`,
	),
	CategoryDataInterp: compileAll(
		`\btable\b`,
		`\bgraph\b`,
		`\bchart\b`,
		`\bpie\b`,
		`\bbar diagram\b`,
		`\bdata given\b`,
		`\bfollowing data\b`,
	),
	CategoryGeneralReasoning: compileAll(
		`\bassumption\b`,
		`\binference\b`,
		`\bcourse of action\b`,
		`\bdecision making\b`,
		`\bcause and effect\b`,
	),
	CategoryGeneralKnowledge: compileAll(
		`\bcapital\b`,
		`\bcountry\b`,
		`\bpresident\b`,
		`\bhistory\b`,
		`\binvented\b`,
		`\bcurrency\b`,
		`\bauthor\b`,
		`\bfounded\b`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(p))
	}
	return res
}

// Categorize maps free question text to one of the fixed category labels.
// It is a keyword heuristic, not a trained classifier: each keyword hit adds
// keywordWeight to its category, and the strictly highest total wins with a
// stable first-wins tie-break over categoryOrder. When no keyword matches,
// short texts are treated as reasoning items, reading-flavored texts as
// verbal, and everything else as general knowledge.
func Categorize(text string) string {
	if strings.TrimSpace(text) == "" {
		return CategoryGeneralKnowledge
	}
	lower := strings.ToLower(text)

	best := ""
	bestScore := 0
	for _, cat := range categoryOrder {
		score := 0
		for _, re := range categoryKeywords[cat] {
			score += keywordWeight * len(re.FindAllStringIndex(lower, -1))
		}
		if score > bestScore {
			best = cat
			bestScore = score
		}
	}
	if bestScore > 0 {
		return best
	}

	// No keyword hit: fall back to shape heuristics.
	if len(text) < shortTextLimit {
		return CategoryGeneralReasoning
	}
	if strings.Contains(lower, "passage") || strings.Contains(lower, "read") {
		return CategoryVerbal
	}
	return CategoryGeneralKnowledge
}
