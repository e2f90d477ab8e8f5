package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"neurabuddy/internal/domain"
)

var (
	numberPattern    = regexp.MustCompile(`[\d,]+\.?\d*`)
	componentDivider = regexp.MustCompile(`\s+and\s+|\s*,\s*|\s+or\s+`)

	componentStopwords = map[string]bool{
		"the": true, "composed": true, "includes": true, "consists": true, "made": true,
		"from": true, "cns": true, "that": true, "which": true,
	}
	keywordStopwords = map[string]bool{
		"the": true, "a": true, "an": true, "is": true, "are": true, "was": true, "were": true,
		"in": true, "on": true, "at": true, "to": true, "for": true, "of": true, "and": true,
		"or": true, "but": true, "composed": true, "includes": true,
	}
	listIndicators = []string{
		"six", "seven", "eight", "nine", "ten", "eleven", "twelve",
		"all ", "list ", "name all", "enumerate",
	}
)

const (
	feedbackExcellent     = "Excellent! You understand the concept well."
	feedbackComponents    = "Good partial answer: you have some components right. Review what you missed."
	feedbackIncompleteSet = "Good partial answer: you're missing some items from the complete list."
	feedbackGoodStart     = "Good start: you have some key points. Review the full answer."
	feedbackReview        = "Review this concept again."
)

// gradeHeuristically scores a recall attempt without the model. Numbers
// within 20% count as equivalent, and single-digit values are also compared
// at x1000 so "1.3 kg" matches "1,300 g".
func gradeHeuristically(question, correct, answer string) domain.FlashCardEvaluation {
	userLower := strings.ToLower(strings.TrimSpace(answer))
	correctLower := strings.ToLower(strings.TrimSpace(correct))

	userNums := extractNumbers(answer)
	correctNums := extractNumbers(correct)
	var numOverlap float64
	if len(correctNums) > 0 {
		shared := 0
		for v := range correctNums {
			if userNums[v] {
				shared++
			}
		}
		numOverlap = float64(shared) / float64(len(correctNums))
	}
	numClose := false
	for u := range userNums {
		for c := range correctNums {
			if math.Abs(u-c) <= c*0.2 {
				numClose = true
			}
		}
	}

	components := extractComponents(correctLower)
	componentMatches := 0
	for _, c := range components {
		if strings.Contains(userLower, c) {
			componentMatches++
		}
	}
	componentRatio := ratio(componentMatches, len(components))

	keywordMatches, keywords := 0, 0
	for _, w := range strings.Fields(correctLower) {
		if utf8.RuneCountInString(w) <= 3 || keywordStopwords[w] {
			continue
		}
		keywords++
		if strings.Contains(userLower, w) {
			keywordMatches++
		}
	}
	matchRatio := ratio(keywordMatches, keywords)

	listQuestion := isListQuestion(question, correctLower)
	threshold := 0.6
	if listQuestion {
		threshold = 0.8
	}

	switch {
	case numOverlap >= 0.5 || numClose:
		return fullCredit()
	case matchRatio >= threshold || (componentRatio >= 0.8 && len(components) >= 2):
		return fullCredit()
	case componentRatio >= 0.5 || componentMatches >= 1:
		return partialCredit(feedbackComponents)
	case matchRatio >= 0.5 && listQuestion:
		return partialCredit(feedbackIncompleteSet)
	case matchRatio >= 0.25 || numOverlap >= 0.25:
		return partialCredit(feedbackGoodStart)
	}
	return domain.FlashCardEvaluation{Score: 0, Feedback: feedbackReview}
}

func fullCredit() domain.FlashCardEvaluation {
	return domain.FlashCardEvaluation{Score: 1, Feedback: feedbackExcellent, IsCorrect: true}
}

func partialCredit(feedback string) domain.FlashCardEvaluation {
	return domain.FlashCardEvaluation{Score: 0.5, Feedback: feedback, IsPartial: true}
}

func extractNumbers(s string) map[float64]bool {
	out := map[float64]bool{}
	for _, m := range numberPattern.FindAllString(s, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil {
			continue
		}
		out[v] = true
		if v > 1 && v < 10 {
			out[v*1000] = true
		}
	}
	return out
}

// extractComponents splits an answer on and/or/commas into distinct content
// words of four or more letters.
func extractComponents(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, part := range componentDivider.Split(strings.ToLower(text), -1) {
		for _, w := range strings.Fields(part) {
			w = strings.Trim(w, ".,")
			if utf8.RuneCountInString(w) < 4 || componentStopwords[w] || seen[w] {
				continue
			}
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

func isListQuestion(question, correctLower string) bool {
	q := strings.ToLower(question)
	for _, ind := range listIndicators {
		if strings.Contains(q, ind) {
			return true
		}
	}
	return strings.Count(correctLower, ",") >= 3
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// snapScore maps a model score onto the 0 / 0.5 / 1 scale.
func snapScore(v float64) float64 {
	switch {
	case v >= 0.75:
		return 1
	case v >= 0.25:
		return 0.5
	}
	return 0
}
