package interview

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes one interview type. The string fields are comma-joined
// value lists because they are forwarded verbatim as agent session
// attributes, not parsed by us.
type Config struct {
	DisplayName      string   `yaml:"display_name"`
	FocusAreas       string   `yaml:"focus_areas"`
	KeyTopics        string   `yaml:"key_topics"`
	DifficultyRange  string   `yaml:"difficulty_range"`
	EvaluationWeight string   `yaml:"evaluation_weight"`
	Phases           []string `yaml:"phases,omitempty"`
}

// PhaseList returns the ordered phase names for this interview type.
func (c Config) PhaseList() []string {
	if len(c.Phases) > 0 {
		return c.Phases
	}
	return DefaultPhases
}

// Catalog maps interview type keys to their configurations.
type Catalog map[string]Config

// DefaultCatalog returns the built-in interview types.
func DefaultCatalog() Catalog {
	return Catalog{
		"google_sde": {
			DisplayName:      "Google India - SDE",
			FocusAreas:       "algorithms,data_structures,system_design,coding",
			KeyTopics:        "arrays,trees,graphs,dynamic_programming,complexity_analysis",
			DifficultyRange:  "medium_to_hard",
			EvaluationWeight: "technical:40,problem_solving:30,communication:20,code_quality:10",
		},
		"amazon_sde": {
			DisplayName:      "Amazon India - SDE",
			FocusAreas:       "leadership_principles,coding,system_design,behavioral",
			KeyTopics:        "ownership,customer_obsession,oop,scalability,STAR_method",
			DifficultyRange:  "medium_to_hard",
			EvaluationWeight: "technical:35,problem_solving:25,communication:20,leadership:20",
		},
		"microsoft_sde": {
			DisplayName:      "Microsoft - SDE",
			FocusAreas:       "problem_solving,coding,collaboration,design",
			KeyTopics:        "data_structures,algorithms,api_design,debugging,testing",
			DifficultyRange:  "medium",
			EvaluationWeight: "technical:40,problem_solving:30,communication:20,teamwork:10",
		},
		"aws_solutions_architect": {
			DisplayName:      "AWS Solutions Architect",
			FocusAreas:       "cloud_architecture,aws_services,best_practices,cost_optimization",
			KeyTopics:        "well_architected,high_availability,disaster_recovery,security,compliance",
			DifficultyRange:  "medium_to_hard",
			EvaluationWeight: "technical:50,problem_solving:30,communication:20",
		},
		"azure_solutions_architect": {
			DisplayName:      "Azure Solutions Architect",
			FocusAreas:       "azure_services,hybrid_cloud,enterprise_solutions",
			KeyTopics:        "compute,storage,networking,iam,migration,cost_management",
			DifficultyRange:  "medium_to_hard",
			EvaluationWeight: "technical:50,problem_solving:30,communication:20",
		},
		"gcp_solutions_architect": {
			DisplayName:      "GCP Solutions Architect",
			FocusAreas:       "gcp_services,data_analytics,ml_integration",
			KeyTopics:        "compute_engine,kubernetes,cloud_functions,bigquery,iam,networking",
			DifficultyRange:  "medium_to_hard",
			EvaluationWeight: "technical:50,problem_solving:30,communication:20",
		},
		"cv_grilling": {
			DisplayName:      "CV Grilling / Behavioral",
			FocusAreas:       "resume_deep_dive,project_experience,behavioral_competencies",
			KeyTopics:        "project_details,challenges,teamwork,conflict_resolution,STAR_method",
			DifficultyRange:  "medium",
			EvaluationWeight: "communication:40,experience:30,problem_solving:20,cultural_fit:10",
		},
		"coding_practice": {
			DisplayName:      "Coding Round Practice",
			FocusAreas:       "pure_coding,algorithms,optimization",
			KeyTopics:        "leetcode_style,multiple_approaches,complexity_analysis,code_quality",
			DifficultyRange:  "easy_to_hard",
			EvaluationWeight: "code_quality:40,problem_solving:40,communication:20",
			Phases:           []string{"introduction", "coding"},
		},
	}
}

// LoadCatalog returns the default catalog merged with per-type overrides
// read from a YAML file. An empty path means no overrides.
func LoadCatalog(path string) (Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read interview catalog: %w", err)
	}

	var overrides map[string]Config
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse interview catalog: %w", err)
	}
	for key, cfg := range overrides {
		cat[normalizeType(key)] = cfg
	}
	return cat, nil
}

func normalizeType(interviewType string) string {
	s := strings.ToLower(interviewType)
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}

// Lookup resolves an interview type name to its configuration. Names are
// normalized (lowercased, spaces and dashes to underscores) before an exact
// match, then a substring match in either direction. Unknown types fall back
// to a generic technical interview keeping the caller's display name.
func (c Catalog) Lookup(interviewType string) Config {
	normalized := normalizeType(interviewType)

	if cfg, ok := c[normalized]; ok {
		return cfg
	}
	for key, cfg := range c {
		if strings.Contains(key, normalized) || strings.Contains(normalized, key) {
			return cfg
		}
	}
	return Config{
		DisplayName:      interviewType,
		FocusAreas:       "technical,problem_solving,communication",
		KeyTopics:        "general_technical_questions",
		DifficultyRange:  "medium",
		EvaluationWeight: "technical:40,problem_solving:30,communication:30",
	}
}
