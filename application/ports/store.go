package ports

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"

	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
)

// Store is the access-pattern surface the application layer writes through.
// The key, cursor and write-set vocabulary is the single-table layer's own;
// the port exists so services can be tested against a fake without standing
// up the real table.
type Store interface {
	// GetByKey reads the single item at key, or NotFound.
	GetByKey(ctx context.Context, key dynamo.ItemKey) (model.Entity, error)

	// ScanPrefix pages through one partition's items whose sort key begins
	// with skPrefix, in ascending sort-key order.
	ScanPrefix(ctx context.Context, pk, skPrefix string, page dynamo.PageRequest) (dynamo.PageResult, error)

	// ScanSecondaryIndex pages through the overloaded index the same way.
	ScanSecondaryIndex(ctx context.Context, gsi1pk, gsi1skPrefix string, page dynamo.PageRequest) (dynamo.PageResult, error)

	// PutItem writes one entity, optionally guarded against overwrite.
	PutItem(ctx context.Context, entity model.Entity, opts ...dynamo.PutOption) error

	// UpdateItem applies a conditional update expression to the item at key.
	UpdateItem(ctx context.Context, key dynamo.ItemKey, update expression.UpdateBuilder, condition expression.ConditionBuilder) error

	// DeleteItem removes the item at key. Absent items are not an error.
	DeleteItem(ctx context.Context, key dynamo.ItemKey) error

	// TransactWrite commits a write set atomically.
	TransactWrite(ctx context.Context, ws *dynamo.WriteSet) error
}

// EventPublisher pushes domain events onto the platform bus. Publishing is
// best-effort relative to the store write: a committed write whose event
// fails to publish is logged, never rolled back.
type EventPublisher interface {
	Publish(ctx context.Context, event model.DomainEvent) error
}
