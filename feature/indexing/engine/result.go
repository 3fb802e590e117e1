package engine

// CycleResult is the aggregate outcome of one reconciliation cycle. It is
// the sole contract handed back to callers: stage-local failures land in
// Errors and the outcome flags, never in a returned error. Only faults that
// prevent the cycle from running at all (site missing, store unreachable)
// propagate as errors.
type CycleResult struct {
	SiteID uint `json:"site_id"`

	// Skipped is set when the site lock was held by another worker. Not an
	// error; the next schedule tick retries.
	Skipped bool `json:"skipped"`

	NewURLs     int `json:"new_urls"`
	ChangedURLs int `json:"changed_urls"`
	RemovedURLs int `json:"removed_urls"`
	DeadURLs    int `json:"dead_urls"`

	SubmittedSearch   int `json:"submitted_search"`
	RateLimitedSearch int `json:"rate_limited_search"`
	FailedSearch      int `json:"failed_search"`
	SubmittedIndexNow int `json:"submitted_indexnow"`

	// QuotaExhausted and InsufficientCredits are first-class outcomes, not
	// errors: the search channel was skipped for the rest of the cycle.
	QuotaExhausted      bool `json:"quota_exhausted"`
	InsufficientCredits bool `json:"insufficient_credits"`

	// AuthExpired reports an auth-class search API failure, which requires
	// user action and disables the toggle.
	AuthExpired bool `json:"auth_expired"`

	// KeyVerificationFailed reports that the IndexNow ownership key could
	// not be verified this cycle.
	KeyVerificationFailed bool `json:"key_verification_failed"`

	CreditsUsed      int `json:"credits_used"`
	CreditsRemaining int `json:"credits_remaining"`

	// Errors accumulates non-fatal stage failures.
	Errors []string `json:"errors"`
}

func newCycleResult(siteID uint) *CycleResult {
	return &CycleResult{SiteID: siteID, Errors: []string{}}
}

func (r *CycleResult) addError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// InspectionResult is the aggregate outcome of one coverage inspection run.
type InspectionResult struct {
	SiteID         uint `json:"site_id"`
	Skipped        bool `json:"skipped"`
	Inspected      int  `json:"inspected"`
	QuotaExhausted bool `json:"quota_exhausted"`
	AuthExpired    bool `json:"auth_expired"`

	Errors []string `json:"errors"`
}
