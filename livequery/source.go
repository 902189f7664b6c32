package livequery

import "context"

// Op enumerates the comparison operators a Filter can carry. The binder does
// not interpret them; they are forwarded verbatim to the source.
type Op string

const (
	OpEq Op = "eq"
	OpNe Op = "ne"
	OpLt Op = "lt"
	OpLe Op = "le"
	OpGt Op = "gt"
	OpGe Op = "ge"
	OpIn Op = "in"
)

// Filter is one predicate restricting a collection subscription.
type Filter struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value any    `json:"value"`
}

// Eq builds an equality filter, the overwhelmingly common case.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Document is one record as delivered by the source. Fields does not include
// the id; the binder merges it in before validation.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
	Exists bool           `json:"exists"`
}

// DocumentEvent is a full-snapshot push for a single-document subscription.
type DocumentEvent struct {
	Document Document
}

// CollectionEvent is a full-snapshot push for a collection subscription.
// Documents are in the order the source delivered them.
type CollectionEvent struct {
	Documents []Document
}

// DocumentSubscription is one active push listener on a document address.
// Events is closed when the listener stops; Err reports why, or nil for a
// clean close.
type DocumentSubscription interface {
	Events() <-chan DocumentEvent
	Err() error
	Close() error
}

// CollectionSubscription is one active push listener on a collection address.
type CollectionSubscription interface {
	Events() <-chan CollectionEvent
	Err() error
	Close() error
}

// Source is the external push-based document store. Subscribe calls open one
// independent listener per call; the source performs no deduplication.
// Mutations go straight to the source, which emits the next push and closes
// the loop back through the subscriptions.
type Source interface {
	SubscribeDocument(ctx context.Context, collection, id string) (DocumentSubscription, error)
	SubscribeCollection(ctx context.Context, collection string, filters []Filter) (CollectionSubscription, error)

	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
}
