package indexing

// Config holds configuration for the reconciliation engine and the two
// submission channels.
type Config struct {
	// Enabled toggles the whole feature, including the scheduler.
	Enabled bool `mapstructure:"enabled" default:"true"`

	// SubmissionDailyLimit caps search engine submissions per account per
	// UTC day.
	SubmissionDailyLimit int `mapstructure:"submission_daily_limit" default:"200"`
	// InspectionDailyLimit caps coverage inspections per account per UTC day.
	InspectionDailyLimit int `mapstructure:"inspection_daily_limit" default:"2000"`

	// CreditCostPerURL is the prepaid credit price of one search engine
	// submission.
	CreditCostPerURL int `mapstructure:"credit_cost_per_url" default:"1"`
	// LowBalanceThreshold flags an account when its balance drops below it.
	LowBalanceThreshold int `mapstructure:"low_balance_threshold" default:"50"`

	// SearchEndpoint receives publish requests for individual URLs.
	SearchEndpoint string `mapstructure:"search_endpoint" default:"https://indexing.googleapis.com/v3/urlNotifications:publish"`
	// InspectEndpoint answers coverage inspection requests.
	InspectEndpoint string `mapstructure:"inspect_endpoint" default:"https://searchconsole.googleapis.com/v1/urlInspection/index:inspect"`
	// IndexNowEndpoint receives peer notification batches.
	IndexNowEndpoint string `mapstructure:"indexnow_endpoint" default:"https://api.indexnow.org/indexnow"`

	// SearchRatePerSecond throttles outbound search engine API calls.
	SearchRatePerSecond float64 `mapstructure:"search_rate_per_second" default:"5"`
	// HTTPTimeoutSeconds bounds every outbound HTTP call (sitemap fetch,
	// liveness probe, submission).
	HTTPTimeoutSeconds int `mapstructure:"http_timeout_seconds" default:"20"`

	// InspectionBatchLimit caps how many URLs one inspection run refreshes.
	InspectionBatchLimit int `mapstructure:"inspection_batch_limit" default:"50"`

	// ScheduleIntervalMinutes is the pause between automatic reconciliation
	// sweeps. Zero disables the scheduler.
	ScheduleIntervalMinutes int `mapstructure:"schedule_interval_minutes" default:"60"`
}
