package nodes

const DefaultMaxIterations = 6

// ===== Small helpers for the iteration budget =====
// NormalizeMaxIterations returns a sane default when the provided value is invalid.
func NormalizeMaxIterations(n int) int {
	if n <= 0 {
		return DefaultMaxIterations
	}
	return n
}

// MaxRunSteps bounds graph steps for a given iteration budget. The budget
// ends the loop first; this only catches a routing defect.
func MaxRunSteps(maxIterations int) int {
	maxSteps := 10 + NormalizeMaxIterations(maxIterations)*2
	if maxSteps < 20 {
		maxSteps = 20
	}
	return maxSteps
}
