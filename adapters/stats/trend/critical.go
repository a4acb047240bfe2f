package trend

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// CriticalMethod selects how the interval half-width multiplier is chosen
type CriticalMethod string

const (
	// CriticalStudentT uses the two-sided Student-t quantile at the requested
	// confidence with n-2 degrees of freedom.
	CriticalStudentT CriticalMethod = "student_t"
	// CriticalApprox reproduces the legacy small-sample rule: 1.96 for n <= 3,
	// otherwise min(2.0, 1.96 + 0.5/(n-2)). It ignores the confidence level.
	CriticalApprox CriticalMethod = "approx"
)

// ParseCriticalMethod maps a config string to a method
func ParseCriticalMethod(s string) (CriticalMethod, error) {
	switch CriticalMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", CriticalStudentT:
		return CriticalStudentT, nil
	case CriticalApprox:
		return CriticalApprox, nil
	}
	return "", fmt.Errorf("unknown critical value method %q", s)
}

// CriticalValue returns the multiplier applied to the prediction standard
// error for n observations at the given two-sided confidence.
func CriticalValue(method CriticalMethod, n int, confidence float64) float64 {
	if method == CriticalApprox {
		if n <= 3 {
			return 1.96
		}
		return math.Min(2.0, 1.96+0.5/float64(n-2))
	}

	df := math.Max(float64(n-2), 1)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return t.Quantile(1 - (1-confidence)/2)
}
