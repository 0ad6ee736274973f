package audit

import "context"

// Filter narrows an audit listing.
type Filter struct {
	EntityType string
	EntityID   string
	Action     string
}

// Repository persists the append-only audit log.
type Repository interface {
	// Append records one entry
	Append(ctx context.Context, entry *Entry) error
	// List retrieves entries newest first
	List(ctx context.Context, filter *Filter, limit, offset int) ([]*Entry, error)
}
