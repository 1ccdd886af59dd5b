package equivalence

// TestType identifies one of the three equivalence testing procedures.
type TestType string

const (
	TestIU        TestType = "iu"
	TestMean      TestType = "mean"
	TestBootstrap TestType = "bootstrap"
)

// FitResult is the outcome of one (possibly constrained) estimation call.
// Violation is the amount by which the max-abs placebo constraint is missed
// at the returned point; zero when the fast path was taken.
type FitResult struct {
	Coefficients []float64 `json:"coefficients"`
	Converged    bool      `json:"converged"`
	Violation    float64   `json:"violation,omitempty"`
}

// PlaceboDetail carries per-coefficient diagnostics for the IU procedure.
type PlaceboDetail struct {
	Name         string  `json:"name"`
	Coefficient  float64 `json:"coefficient"`
	StdError     float64 `json:"std_error"`
	MinThreshold float64 `json:"min_threshold,omitempty"`
}

// TestResult is the output of one equivalence test run.
//
// MinThreshold is the smallest equivalence margin at which the
// "no meaningful pre-trend" null can be rejected at level Alpha.
// Reject is only populated when the caller supplied a margin to decide at.
type TestResult struct {
	RunID        string          `json:"run_id"`
	Type         TestType        `json:"type"`
	Alpha        float64         `json:"alpha"`
	MinThreshold float64         `json:"min_threshold"`
	Margin       float64         `json:"margin,omitempty"`
	Reject       *bool           `json:"reject,omitempty"`
	Placebos     []PlaceboDetail `json:"placebos,omitempty"`
	Converged    bool            `json:"converged"`
	RuntimeMs    int64           `json:"runtime_ms"`
}
