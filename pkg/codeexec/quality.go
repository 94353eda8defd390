package codeexec

import (
	"math"
	"sort"
	"strings"
)

// QualityMetrics is a lightweight static analysis of a submission.
type QualityMetrics struct {
	LinesOfCode          int     `json:"lines_of_code"`
	CyclomaticComplexity int     `json:"cyclomatic_complexity"`
	NumFunctions         int     `json:"num_functions"`
	NumComments          int     `json:"num_comments"`
	AvgLineLength        float64 `json:"avg_line_length"`
	HasTypeHints         bool    `json:"has_type_hints"`
	QualityScore         float64 `json:"quality_score"`
}

// AnalyzeQuality derives quality metrics from the submission source.
// Complexity is a simplified decision-point count, not a real control-flow
// analysis.
func AnalyzeQuality(code, language string) QualityMetrics {
	var nonBlank []string
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) != "" {
			nonBlank = append(nonBlank, line)
		}
	}

	var loc, comments, totalLen int
	for _, line := range nonBlank {
		s := strings.TrimSpace(line)
		if strings.HasPrefix(s, "#") || strings.HasPrefix(s, "//") {
			comments++
		} else {
			loc++
		}
		totalLen += len(line)
	}
	avgLineLength := float64(totalLen) / math.Max(float64(len(nonBlank)), 1)

	var numFunctions int
	var hasTypeHints bool
	if language == "python" {
		numFunctions = strings.Count(code, "def ")
		hasTypeHints = strings.Contains(code, "->") || strings.Contains(code, ": ")
	} else {
		numFunctions = strings.Count(code, "function ") + strings.Count(code, "=>")
	}

	complexity := strings.Count(code, "if ") +
		strings.Count(code, "for ") +
		strings.Count(code, "while ") +
		strings.Count(code, "case ") +
		strings.Count(code, "&&") +
		strings.Count(code, "||") + 1

	score := 5.0
	if loc >= 10 && loc <= 100 {
		score += 1.0
	}
	if comments > 0 {
		score += 0.5
	}
	if hasTypeHints {
		score += 1.0
	}
	if complexity <= 10 {
		score += 1.0
	}
	if avgLineLength >= 40 && avgLineLength <= 80 {
		score += 0.5
	}
	if numFunctions > 0 {
		score += 1.0
	}
	if loc > 200 {
		score -= 1.0
	}
	if complexity > 20 {
		score -= 1.0
	}
	if avgLineLength > 120 {
		score -= 0.5
	}
	score = math.Max(0, math.Min(10, score))

	return QualityMetrics{
		LinesOfCode:          loc,
		CyclomaticComplexity: complexity,
		NumFunctions:         numFunctions,
		NumComments:          comments,
		AvgLineLength:        round2(avgLineLength),
		HasTypeHints:         hasTypeHints,
		QualityScore:         round2(score),
	}
}

// Summary aggregates a session's submissions.
type Summary struct {
	TotalSubmissions    int      `json:"total_submissions"`
	TotalPassed         int      `json:"total_passed"`
	PassRate            float64  `json:"pass_rate"`
	AvgExecutionTime    float64  `json:"avg_execution_time"`
	AvgQualityScore     float64  `json:"avg_quality_score"`
	LanguagesUsed       []string `json:"languages_used"`
	FirstAttemptSuccess bool     `json:"first_attempt_success"`
}

// Summarize computes summary statistics over submissions in order.
func Summarize(submissions []Submission) Summary {
	if len(submissions) == 0 {
		return Summary{LanguagesUsed: []string{}}
	}

	var passed int
	var execTotal, qualityTotal float64
	var qualityCount int
	langs := make(map[string]struct{})
	for _, s := range submissions {
		if s.AllTestsPassed {
			passed++
		}
		execTotal += s.ExecutionTime
		if s.QualityMetrics != nil {
			qualityTotal += s.QualityMetrics.QualityScore
			qualityCount++
		}
		langs[s.Language] = struct{}{}
	}

	languages := make([]string, 0, len(langs))
	for l := range langs {
		languages = append(languages, l)
	}
	sort.Strings(languages)

	avgQuality := 0.0
	if qualityCount > 0 {
		avgQuality = qualityTotal / float64(qualityCount)
	}

	return Summary{
		TotalSubmissions:    len(submissions),
		TotalPassed:         passed,
		PassRate:            round2(float64(passed) / float64(len(submissions)) * 100),
		AvgExecutionTime:    round3(execTotal / float64(len(submissions))),
		AvgQualityScore:     round2(avgQuality),
		LanguagesUsed:       languages,
		FirstAttemptSuccess: submissions[0].AllTestsPassed,
	}
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
func round3(f float64) float64 { return math.Round(f*1000) / 1000 }
