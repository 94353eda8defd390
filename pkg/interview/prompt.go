package interview

import (
	"fmt"
	"strconv"
)

// The agent receives interview details per turn as a bracketed context
// prefix plus a constraint reminder, instead of baking them into the agent
// instruction. Session attributes carry the same state for agent-side
// memory.

const constraintReminder = "[REMINDER: Respond with MAXIMUM 2-3 sentences. Ask EXACTLY ONE question. NO bullet points, NO lists, NO asterisks.]\n\n"

// Greeting is the fixed interviewer introduction sent when the client
// signals it is ready. It avoids an agent round trip so the first turn
// starts instantly.
func Greeting(candidateName, interviewType string) string {
	return fmt.Sprintf("Hello %s, I'm Alex Rivera, your interviewer for today's %s. Let's begin. Please tell me about yourself.",
		candidateName, interviewType)
}

// TurnInput wraps the candidate transcript with interview context and the
// response-shape reminder before it is sent to the agent.
func TurnInput(cfg Config, candidateName, currentPhase, transcript string) string {
	prefix := fmt.Sprintf("[CONTEXT: Interviewing %s for %s. Focus: %s. Topics: %s. Difficulty: %s. Current phase: %s.]\n",
		candidateName, cfg.DisplayName, cfg.FocusAreas, cfg.KeyTopics, cfg.DifficultyRange, currentPhase)
	return prefix + constraintReminder + transcript
}

// SessionAttributes builds the agent session attributes for one turn.
func SessionAttributes(interviewType, candidateName, resumeSummary, currentPhase string, turnCount int) map[string]string {
	if resumeSummary == "" {
		resumeSummary = "Not provided"
	}
	return map[string]string{
		"interviewType":   interviewType,
		"candidateName":   candidateName,
		"resumeSummary":   resumeSummary,
		"turnCount":       strconv.Itoa(turnCount),
		"currentPhase":    currentPhase,
		"difficultyLevel": "medium",
	}
}

// CodeFeedbackInput builds the agent prompt for a code submission result.
// Three variants: all tests passed, execution error, or partial failures.
func CodeFeedbackInput(candidateName, language string, total, failed int, execError string) string {
	var prompt string
	switch {
	case execError != "":
		prompt = fmt.Sprintf("[CONTEXT: %s just submitted %s code that had an error: %s]\n", candidateName, language, execError)
		prompt += "[INSTRUCTION: Provide constructive feedback on the error and guide them to fix it.]\n"
		prompt += "Code submission: Execution error occurred."
	case failed == 0:
		prompt = fmt.Sprintf("[CONTEXT: %s just submitted %s code that passed all %d test cases successfully.]\n", candidateName, language, total)
		prompt += "[INSTRUCTION: Provide brief positive feedback and ask a follow-up question about their approach or optimization.]\n"
		prompt += "Code submission: All tests passed!"
	default:
		prompt = fmt.Sprintf("[CONTEXT: %s just submitted %s code. %d tests passed, %d tests failed.]\n", candidateName, language, total-failed, failed)
		prompt += "[INSTRUCTION: Provide constructive feedback on what might be wrong and guide them to debug.]\n"
		prompt += "Code submission: Some tests failed."
	}
	prompt += "\n[REMINDER: Respond with MAXIMUM 2-3 sentences. Ask EXACTLY ONE question. NO bullet points, NO lists, NO asterisks.]"
	return prompt
}
