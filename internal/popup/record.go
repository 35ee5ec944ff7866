package popup

import "context"

// SubscriptionStatus is the visitor's relationship to the newsletter.
type SubscriptionStatus string

const (
	StatusUnsubscribed SubscriptionStatus = "unsubscribed"
	StatusSubscribed   SubscriptionStatus = "subscribed"
)

// ExposureRecord is the per-visitor history of popup appearances, persisted
// across page views and sessions.
type ExposureRecord struct {
	Status     SubscriptionStatus `json:"status"`
	SeenCount  int                `json:"seenCount"`
	LastSeenAt int64              `json:"lastSeenAt"` // unix millis, 0 when never shown
}

// DefaultExposureRecord is the record for a visitor we have never shown the
// popup to.
func DefaultExposureRecord() ExposureRecord {
	return ExposureRecord{Status: StatusUnsubscribed}
}

// ExposureStore persists exposure records per visitor. Implementations fail
// soft on the read path: a missing or unreadable record comes back as the
// default record, with a non-nil error only for real backend failures.
type ExposureStore interface {
	Read(ctx context.Context, visitorID string) (ExposureRecord, error)
	Write(ctx context.Context, visitorID string, rec ExposureRecord) error
}
