package interview

// DefaultPhases is the standard five-phase interview arc.
var DefaultPhases = []string{"introduction", "background", "technical", "problem_solving", "closing"}

// PhaseForTurn maps a completed-turn count onto the interview's phase list.
// The mapping is monotonic in turns: a later turn never maps to an earlier
// phase. Phase lists of 2 elements stay on the second phase for the rest of
// the interview.
func PhaseForTurn(phases []string, turns int) string {
	if len(phases) == 0 {
		phases = DefaultPhases
	}
	switch {
	case turns == 0:
		return phases[0]
	case turns <= 1:
		return phases[min(1, len(phases)-1)]
	case len(phases) == 2:
		return phases[1]
	case turns <= 3:
		return phases[min(2, len(phases)-1)]
	case turns <= 8:
		return phases[min(3, len(phases)-1)]
	default:
		return phases[len(phases)-1]
	}
}
