package interview

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLookupExactAndNormalized(t *testing.T) {
	cat := DefaultCatalog()

	cfg := cat.Lookup("google_sde")
	if cfg.DisplayName != "Google India - SDE" {
		t.Fatalf("exact lookup failed: %+v", cfg)
	}

	cfg = cat.Lookup("Google SDE")
	if cfg.DisplayName != "Google India - SDE" {
		t.Fatalf("normalized lookup failed: %+v", cfg)
	}
}

func TestLookupPartialMatch(t *testing.T) {
	cat := DefaultCatalog()
	cfg := cat.Lookup("amazon")
	if cfg.DisplayName != "Amazon India - SDE" {
		t.Fatalf("partial lookup failed: %+v", cfg)
	}
}

func TestLookupUnknownFallsBack(t *testing.T) {
	cat := DefaultCatalog()
	cfg := cat.Lookup("Underwater Basket Weaving")
	if cfg.DisplayName != "Underwater Basket Weaving" {
		t.Fatalf("fallback should keep caller display name, got %q", cfg.DisplayName)
	}
	if cfg.DifficultyRange != "medium" {
		t.Fatalf("fallback difficulty: %q", cfg.DifficultyRange)
	}
}

func TestPhaseListDefaultsAndOverride(t *testing.T) {
	cat := DefaultCatalog()
	if got := cat.Lookup("google_sde").PhaseList(); len(got) != 5 {
		t.Fatalf("expected default five phases, got %v", got)
	}
	got := cat.Lookup("coding_practice").PhaseList()
	if len(got) != 2 || got[1] != "coding" {
		t.Fatalf("coding practice phases: %v", got)
	}
}

func TestLoadCatalogOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "types.yaml")
	override := `
startup_cto:
  display_name: Startup CTO Screen
  focus_areas: architecture,pragmatism
  key_topics: tradeoffs,shipping
  difficulty_range: hard
  evaluation_weight: technical:60,communication:40
  phases: [introduction, deep_dive, closing]
`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	cfg := cat.Lookup("Startup CTO")
	if cfg.DisplayName != "Startup CTO Screen" {
		t.Fatalf("override not applied: %+v", cfg)
	}
	if len(cfg.PhaseList()) != 3 {
		t.Fatalf("override phases: %v", cfg.PhaseList())
	}
	// Built-ins survive the merge.
	if cat.Lookup("cv_grilling").DisplayName != "CV Grilling / Behavioral" {
		t.Fatalf("built-in lost after merge")
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	if _, err := LoadCatalog("/nonexistent/types.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestPhaseForTurnThresholds(t *testing.T) {
	cases := []struct {
		turns int
		want  string
	}{
		{0, "introduction"},
		{1, "background"},
		{2, "technical"},
		{3, "technical"},
		{4, "problem_solving"},
		{8, "problem_solving"},
		{9, "closing"},
		{50, "closing"},
	}
	for _, tc := range cases {
		if got := PhaseForTurn(DefaultPhases, tc.turns); got != tc.want {
			t.Fatalf("turns=%d: got %q want %q", tc.turns, got, tc.want)
		}
	}
}

func TestPhaseForTurnTwoPhaseList(t *testing.T) {
	phases := []string{"introduction", "coding"}
	if got := PhaseForTurn(phases, 0); got != "introduction" {
		t.Fatalf("turn 0: %q", got)
	}
	for _, turns := range []int{1, 2, 5, 20} {
		if got := PhaseForTurn(phases, turns); got != "coding" {
			t.Fatalf("turns=%d: got %q", turns, got)
		}
	}
}

func TestPhaseForTurnMonotonic(t *testing.T) {
	index := func(phase string) int {
		for i, p := range DefaultPhases {
			if p == phase {
				return i
			}
		}
		t.Fatalf("unknown phase %q", phase)
		return -1
	}
	prev := -1
	for turns := 0; turns <= 30; turns++ {
		cur := index(PhaseForTurn(DefaultPhases, turns))
		if cur < prev {
			t.Fatalf("phase regressed at turn %d", turns)
		}
		prev = cur
	}
}

func TestTurnInputContainsContextAndReminder(t *testing.T) {
	cfg := DefaultCatalog().Lookup("google_sde")
	got := TurnInput(cfg, "Priya", "technical", "I would use a hash map.")
	if !strings.HasPrefix(got, "[CONTEXT: Interviewing Priya for Google India - SDE.") {
		t.Fatalf("missing context prefix: %q", got)
	}
	if !strings.Contains(got, "Current phase: technical.") {
		t.Fatalf("missing phase: %q", got)
	}
	if !strings.Contains(got, "EXACTLY ONE question") {
		t.Fatalf("missing reminder: %q", got)
	}
	if !strings.HasSuffix(got, "I would use a hash map.") {
		t.Fatalf("transcript not appended: %q", got)
	}
}

func TestGreeting(t *testing.T) {
	got := Greeting("Priya", "Google India - SDE")
	want := "Hello Priya, I'm Alex Rivera, your interviewer for today's Google India - SDE. Let's begin. Please tell me about yourself."
	if got != want {
		t.Fatalf("got %q", got)
	}
}

func TestSessionAttributes(t *testing.T) {
	attrs := SessionAttributes("google_sde", "Priya", "", "technical", 4)
	if attrs["resumeSummary"] != "Not provided" {
		t.Fatalf("empty resume should default: %q", attrs["resumeSummary"])
	}
	if attrs["turnCount"] != "4" || attrs["currentPhase"] != "technical" {
		t.Fatalf("attrs: %v", attrs)
	}
	if attrs["difficultyLevel"] != "medium" {
		t.Fatalf("difficulty: %q", attrs["difficultyLevel"])
	}
}

func TestCodeFeedbackInputVariants(t *testing.T) {
	allPassed := CodeFeedbackInput("Priya", "python", 3, 0, "")
	if !strings.Contains(allPassed, "passed all 3 test cases") {
		t.Fatalf("all-passed variant: %q", allPassed)
	}

	withError := CodeFeedbackInput("Priya", "python", 3, 0, "NameError: x")
	if !strings.Contains(withError, "had an error: NameError: x") {
		t.Fatalf("error variant: %q", withError)
	}

	partial := CodeFeedbackInput("Priya", "python", 5, 2, "")
	if !strings.Contains(partial, "3 tests passed, 2 tests failed") {
		t.Fatalf("partial variant: %q", partial)
	}

	for _, prompt := range []string{allPassed, withError, partial} {
		if !strings.Contains(prompt, "MAXIMUM 2-3 sentences") {
			t.Fatalf("missing reminder: %q", prompt)
		}
	}
}

func TestIsCodingQuestion(t *testing.T) {
	if !IsCodingQuestion("Please write a function that reverses a list.") {
		t.Fatalf("expected coding question")
	}
	if !IsCodingQuestion("Let's try a LeetCode style problem next.") {
		t.Fatalf("keyword match should be case-insensitive")
	}
	if IsCodingQuestion("Tell me about your last project.") {
		t.Fatalf("plain question misdetected")
	}
}

func TestNewCodingQuestionDefaults(t *testing.T) {
	q := NewCodingQuestion("Implement a solution for two-sum.")
	if q.Language != "python" {
		t.Fatalf("language: %q", q.Language)
	}
	if q.TestCases == nil || len(q.TestCases) != 0 {
		t.Fatalf("testCases should be empty, not nil")
	}
	if !strings.HasPrefix(q.InitialCode, "# Write your code here") {
		t.Fatalf("initial code: %q", q.InitialCode)
	}
}
