// Package codeexec runs candidate code against test cases and scores it.
package codeexec

import "context"

// TestCase pairs an input with its expected output.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// TestCaseResult is the outcome of one test case run.
type TestCaseResult struct {
	TestCase int    `json:"test_case"`
	Passed   bool   `json:"passed"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Error    string `json:"error,omitempty"`
}

// ExecRequest describes one execution of candidate code.
type ExecRequest struct {
	Code         string
	Language     string
	TestCases    []TestCase
	FunctionName string
}

// ExecResult is the sandbox's verdict on one submission.
type ExecResult struct {
	Success        bool             `json:"success"`
	TestResults    []TestCaseResult `json:"testResults"`
	AllTestsPassed bool             `json:"allTestsPassed"`
	ExecutionTime  float64          `json:"executionTime"`
	Error          string           `json:"error,omitempty"`
}

// Executor runs candidate code in a sandbox.
type Executor interface {
	Execute(ctx context.Context, req ExecRequest) (*ExecResult, error)
}

// Submission is the durable record of one code submission.
type Submission struct {
	SubmissionID   string           `json:"submission_id"`
	SessionID      string           `json:"session_id"`
	Timestamp      string           `json:"timestamp"`
	Code           string           `json:"code"`
	Language       string           `json:"language"`
	FunctionName   string           `json:"function_name"`
	TestResults    []TestCaseResult `json:"test_results"`
	AllTestsPassed bool             `json:"all_tests_passed"`
	ExecutionTime  float64          `json:"execution_time"`
	QualityMetrics *QualityMetrics  `json:"quality_metrics,omitempty"`
	Error          string           `json:"error,omitempty"`
}
