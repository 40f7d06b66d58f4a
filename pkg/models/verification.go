package models

// CheckStatus is the outcome of one consistency check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckSkipped CheckStatus = "skipped" // an operand was absent
)

// VerificationResult is the advisory outcome of one accounting-identity check
// for one company-period. It never alters the statement it was computed from.
type VerificationResult struct {
	Check       string      `json:"check"`
	Period      Period      `json:"period"`
	Status      CheckStatus `json:"status"`
	Expected    Value       `json:"expected"`    // left-hand side, e.g. total assets
	Actual      Value       `json:"actual"`      // recomputed right-hand side
	Discrepancy Value       `json:"discrepancy"` // signed, relative to max(|expected|, 1)
	Tolerance   float64     `json:"tolerance"`
	Missing     []LineItem  `json:"missing,omitempty"`
	Detail      string      `json:"detail,omitempty"`
}

// Passed reports whether the check ran and passed.
func (r VerificationResult) Passed() bool { return r.Status == CheckPassed }

// Failed reports whether the check ran and failed.
func (r VerificationResult) Failed() bool { return r.Status == CheckFailed }

// Skipped reports whether the check could not run.
func (r VerificationResult) Skipped() bool { return r.Status == CheckSkipped }

// VerificationSummary counts outcomes of a report.
type VerificationSummary struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Summarize tallies a verification report.
func Summarize(results []VerificationResult) VerificationSummary {
	var s VerificationSummary
	for _, r := range results {
		switch r.Status {
		case CheckPassed:
			s.Passed++
		case CheckFailed:
			s.Failed++
		default:
			s.Skipped++
		}
	}
	return s
}
