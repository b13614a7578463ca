package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	OutboxAggregateArtwork  OutboxAggregateType = "artwork"
	OutboxAggregateAccount  OutboxAggregateType = "account"
	OutboxAggregatePurchase OutboxAggregateType = "purchase"
)

var validAggregateTypes = []OutboxAggregateType{
	OutboxAggregateArtwork,
	OutboxAggregateAccount,
	OutboxAggregatePurchase,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	OutboxEventArtworkPublished OutboxEventType = "artwork_published"
	OutboxEventArtworkUpdated   OutboxEventType = "artwork_updated"
	OutboxEventArtworkDeleted   OutboxEventType = "artwork_deleted"
	OutboxEventPurchaseRecorded OutboxEventType = "purchase_recorded"
	OutboxEventAccountDeleted   OutboxEventType = "account_deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventArtworkPublished,
	OutboxEventArtworkUpdated,
	OutboxEventArtworkDeleted,
	OutboxEventPurchaseRecorded,
	OutboxEventAccountDeleted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
