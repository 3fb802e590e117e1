package models

import (
	"strings"
	"time"
)

// IndexedURL status values.
const (
	StatusPending          = "pending"
	StatusSubmitted        = "submitted"
	StatusFailed           = "failed"
	StatusRemovalRequested = "removal_requested"
)

// Submission channel identifiers recorded on IndexedURL.SubmissionMethods.
const (
	MethodSearchEngine = "search_engine"
	MethodIndexNow     = "indexnow"
)

// CoverageIndexed is the coverage state the search engine reports once a
// submitted URL has actually entered its index.
const CoverageIndexed = "Submitted and indexed"

// IndexingLog action tags.
const (
	ActionDiscovered       = "discovered"
	ActionRemoved          = "removed"
	ActionSubmittedSearch  = "submitted_search_engine"
	ActionSubmittedPeer    = "submitted_indexnow"
	ActionFailed           = "failed"
	ActionDeadPage         = "404_detected"
	ActionRemovalRequested = "removal_requested"
)

// Site is a tracked domain owned by an account.
//
// The two *LockedAt columns are short-lived exclusive leases. A lease is
// either NULL (free) or holds the acquisition time; a lease older than the
// staleness threshold is treated as abandoned and may be taken over.
type Site struct {
	ID        uint `gorm:"primaryKey"`
	AccountID uint `gorm:"index;not null"`
	// Domain is the bare host, e.g. "example.com".
	Domain string `gorm:"size:255;not null"`
	// SitemapURL overrides the default sitemap location when set.
	SitemapURL string `gorm:"size:512"`

	AutoSubmitSearch   bool
	AutoSubmitIndexNow bool

	// SearchAPIToken is the account's authorization for the search engine
	// submission API. An auth-class submission failure means it expired.
	SearchAPIToken string `gorm:"size:512"`

	// IndexNowKey is the ownership key published at
	// https://{Domain}/{IndexNowKey}.txt.
	IndexNowKey         string `gorm:"size:128"`
	IndexNowKeyVerified bool

	SyncLockedAt      *time.Time
	AutoIndexLockedAt *time.Time
	LastSyncedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SitemapLocation returns the configured sitemap URL, or the conventional
// default derived from the domain.
func (s Site) SitemapLocation() string {
	if s.SitemapURL != "" {
		return s.SitemapURL
	}
	return "https://" + s.Domain + "/sitemap.xml"
}

// IndexedURL is one row per (site, URL). Rows are never deleted while the
// account exists; URLs that disappear from the sitemap are retained with
// cleared transient flags for historical reporting.
type IndexedURL struct {
	ID     uint   `gorm:"primaryKey"`
	SiteID uint   `gorm:"uniqueIndex:idx_site_url;not null"`
	URL    string `gorm:"uniqueIndex:idx_site_url;size:750;not null"`

	// LastMod is the last-known modification token from the sitemap. Empty
	// when the sitemap carries no lastmod for this URL.
	LastMod string `gorm:"size:64"`

	// IsNew and IsChanged are transient flags set by the diff step of the
	// current cycle and cleared when the URL leaves the sitemap.
	IsNew     bool
	IsChanged bool

	Status string `gorm:"size:32;index;default:pending"`

	// SubmissionMethods is the comma-joined set of channels that accepted
	// this URL.
	SubmissionMethods string `gorm:"size:64"`
	LastSubmittedAt   *time.Time
	LastHTTPStatus    int
	LastError         string `gorm:"size:512"`
	RetryCount        int

	// SearchIndexStatus is the last coverage verdict observed from the
	// search engine's inspection API.
	SearchIndexStatus string `gorm:"size:64"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AddSubmissionMethod records a channel in the comma-joined method set
// without duplicating or overwriting channels recorded earlier.
func (u *IndexedURL) AddSubmissionMethod(method string) {
	if u.SubmissionMethods == "" {
		u.SubmissionMethods = method
		return
	}
	for _, m := range strings.Split(u.SubmissionMethods, ",") {
		if m == method {
			return
		}
	}
	u.SubmissionMethods += "," + method
}

// HasSubmissionMethod reports whether the given channel already accepted
// this URL.
func (u *IndexedURL) HasSubmissionMethod(method string) bool {
	for _, m := range strings.Split(u.SubmissionMethods, ",") {
		if m == method {
			return true
		}
	}
	return false
}

// DailyQuota holds the per-account counters for one UTC day. Rows are
// created lazily on first use and retained for audit.
type DailyQuota struct {
	ID        uint   `gorm:"primaryKey"`
	AccountID uint   `gorm:"uniqueIndex:idx_account_day;not null"`
	Day       string `gorm:"uniqueIndex:idx_account_day;size:10;not null"`

	SubmissionsUsed int
	InspectionsUsed int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DayFormat is the layout for DailyQuota.Day (UTC date).
const DayFormat = "2006-01-02"

// CreditAccount is the prepaid balance for one account. The balance is
// non-negative at every commit point; deducts are guarded by a conditional
// update and fail atomically when the balance is too low.
type CreditAccount struct {
	AccountID uint `gorm:"primaryKey"`
	Balance   int

	// LowBalanceWarned prevents duplicate low-balance notifications. It is
	// cleared when a grant lifts the balance back over the threshold.
	LowBalanceWarned bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreditEntry is one append-only ledger line. Delta is negative for deducts
// and positive for refunds and grants.
type CreditEntry struct {
	ID           string `gorm:"primaryKey;size:36"`
	AccountID    uint   `gorm:"index;not null"`
	Delta        int
	BalanceAfter int
	Reason       string `gorm:"size:255"`
	CreatedAt    time.Time
}

// IndexingLog is an immutable audit record. Entries are only ever appended;
// reporting reads them back filtered by site and action.
type IndexingLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"index;not null" json:"account_id"`
	SiteID    uint      `gorm:"index:idx_site_action;not null" json:"site_id"`
	URL       string    `gorm:"size:750" json:"url"`
	Action    string    `gorm:"index:idx_site_action;size:32;not null" json:"action"`
	Details   string    `gorm:"size:1024" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// All returns every model for migration.
func All() []any {
	return []any{
		&Site{},
		&IndexedURL{},
		&DailyQuota{},
		&CreditAccount{},
		&CreditEntry{},
		&IndexingLog{},
	}
}
