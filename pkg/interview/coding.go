package interview

import "strings"

// codingKeywords flag interviewer responses that pose a coding exercise so
// the client can open its code editor.
var codingKeywords = []string{
	"write a function", "implement", "code", "algorithm",
	"write code", "solve this problem", "coding problem",
	"programming challenge", "leetcode", "code editor",
	"function that", "write a program", "implement a solution",
}

// IsCodingQuestion reports whether the response text poses a coding exercise.
// Matching is a case-insensitive substring scan over the keyword list.
func IsCodingQuestion(response string) bool {
	lower := strings.ToLower(response)
	for _, kw := range codingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CodingQuestion carries the editor bootstrap for a detected coding exercise.
type CodingQuestion struct {
	Question    string   `json:"question"`
	Language    string   `json:"language"`
	TestCases   []string `json:"testCases"`
	InitialCode string   `json:"initialCode"`
}

// NewCodingQuestion builds the default editor payload for a response that
// was detected as a coding exercise.
func NewCodingQuestion(response string) CodingQuestion {
	return CodingQuestion{
		Question:    response,
		Language:    "python",
		TestCases:   []string{},
		InitialCode: "# Write your code here\ndef solution(arr):\n    # Your implementation\n    return arr\n",
	}
}
