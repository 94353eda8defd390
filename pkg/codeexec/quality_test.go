package codeexec

import (
	"testing"
)

const samplePython = `# two-sum with a map
def solution(nums, target):
    seen = {}
    for i, n in enumerate(nums):
        if target - n in seen:
            return [seen[target - n], i]
        seen[n] = i
    return []`

func TestAnalyzeQualityPython(t *testing.T) {
	m := AnalyzeQuality(samplePython, "python")
	if m.LinesOfCode != 7 {
		t.Fatalf("loc: %d", m.LinesOfCode)
	}
	if m.NumComments != 1 {
		t.Fatalf("comments: %d", m.NumComments)
	}
	if m.NumFunctions != 1 {
		t.Fatalf("functions: %d", m.NumFunctions)
	}
	if m.HasTypeHints {
		t.Fatalf("sample has no type hints")
	}
	if m.QualityScore != 7.5 {
		t.Fatalf("score: %v", m.QualityScore)
	}
}

func TestAnalyzeQualityComplexityCount(t *testing.T) {
	code := "if a:\n    pass\nfor x in y:\n    while z:\n        pass\n"
	m := AnalyzeQuality(code, "python")
	if m.CyclomaticComplexity != 4 {
		t.Fatalf("complexity: %d", m.CyclomaticComplexity)
	}
}

func TestAnalyzeQualityJavaScript(t *testing.T) {
	code := "// impl\nconst f = (x) => x * 2;\nfunction g(y) { return y; }\n"
	m := AnalyzeQuality(code, "javascript")
	if m.NumFunctions != 2 {
		t.Fatalf("functions: %d", m.NumFunctions)
	}
	if m.HasTypeHints {
		t.Fatalf("javascript never reports type hints")
	}
}

func TestAnalyzeQualityScoreClamped(t *testing.T) {
	m := AnalyzeQuality("", "python")
	if m.QualityScore < 0 || m.QualityScore > 10 {
		t.Fatalf("score out of range: %v", m.QualityScore)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalSubmissions != 0 || s.PassRate != 0 || len(s.LanguagesUsed) != 0 {
		t.Fatalf("empty summary: %+v", s)
	}
}

func TestSummarize(t *testing.T) {
	q := &QualityMetrics{QualityScore: 8}
	subs := []Submission{
		{Language: "python", AllTestsPassed: true, ExecutionTime: 0.2, QualityMetrics: q},
		{Language: "python", AllTestsPassed: false, ExecutionTime: 0.4},
		{Language: "javascript", AllTestsPassed: true, ExecutionTime: 0.6, QualityMetrics: &QualityMetrics{QualityScore: 6}},
	}
	s := Summarize(subs)
	if s.TotalSubmissions != 3 || s.TotalPassed != 2 {
		t.Fatalf("counts: %+v", s)
	}
	if s.PassRate != 66.67 {
		t.Fatalf("pass rate: %v", s.PassRate)
	}
	if s.AvgExecutionTime != 0.4 {
		t.Fatalf("avg exec: %v", s.AvgExecutionTime)
	}
	if s.AvgQualityScore != 7 {
		t.Fatalf("avg quality: %v", s.AvgQualityScore)
	}
	if len(s.LanguagesUsed) != 2 || s.LanguagesUsed[0] != "javascript" {
		t.Fatalf("languages: %v", s.LanguagesUsed)
	}
	if !s.FirstAttemptSuccess {
		t.Fatalf("first attempt should be success")
	}
}
