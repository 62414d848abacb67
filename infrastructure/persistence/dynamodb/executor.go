package dynamodb

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/domain/model"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
	"github.com/frankkinuthian/lms-v3/pkg/observability"
)

// Client is the slice of the DynamoDB API the executor uses. Narrowed so
// tests can substitute an in-memory fake.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Executor runs the table's access patterns. Every public method classifies
// store failures into the application error taxonomy and retries transient
// ones before giving up with StoreUnavailable.
type Executor struct {
	client  Client
	table   string
	index   string
	retry   RetryConfig
	clock   func() time.Time
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewExecutor creates an executor bound to one table and its secondary index.
func NewExecutor(client Client, tableName, indexName string, logger *zap.Logger, metrics *observability.Metrics) *Executor {
	return &Executor{
		client:  client,
		table:   tableName,
		index:   indexName,
		retry:   DefaultRetryConfig(),
		clock:   time.Now,
		logger:  logger,
		metrics: metrics,
	}
}

// WithRetryConfig overrides the retry policy. Returns the executor for
// chaining at construction time.
func (e *Executor) WithRetryConfig(cfg RetryConfig) *Executor {
	e.retry = cfg
	return e
}

// WithClock overrides the timestamp source. Used by tests.
func (e *Executor) WithClock(clock func() time.Time) *Executor {
	e.clock = clock
	return e
}

// GetByKey reads and decodes the single item at key. A missing item is
// NotFound, named after the entity kind the key addresses.
func (e *Executor) GetByKey(ctx context.Context, key ItemKey) (model.Entity, error) {
	if key.PK == "" || key.SK == "" {
		return nil, errors.NewValidationError("item key must have both PK and SK")
	}

	var out *dynamodb.GetItemOutput
	err := e.retry.withRetry(ctx, "GetByKey", func() error {
		var err error
		out, err = e.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(e.table),
			Key:            key.attributeValues(),
			ConsistentRead: aws.Bool(true),
		})
		return err
	})
	if err != nil {
		return nil, e.classify(ctx, "GetByKey", err)
	}
	if out.Item == nil {
		return nil, errors.NewNotFoundError(resourceLabel(key))
	}

	return Decode(out.Item)
}

// ScanPrefix queries one partition for items whose sort key begins with
// skPrefix, in ascending sort-key order. An empty prefix returns the whole
// partition. The result cursor resumes the scan exactly where the page ended.
func (e *Executor) ScanPrefix(ctx context.Context, pk, skPrefix string, page PageRequest) (PageResult, error) {
	if pk == "" {
		return PageResult{}, errors.NewValidationError("partition key must not be empty")
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(e.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		Limit:            aws.Int32(page.effectiveLimit()),
		ScanIndexForward: aws.Bool(true),
	}
	if skPrefix != "" {
		input.KeyConditionExpression = aws.String("PK = :pk AND begins_with(SK, :sk)")
		input.ExpressionAttributeValues[":sk"] = &types.AttributeValueMemberS{Value: skPrefix}
	}

	return e.queryPage(ctx, "ScanPrefix", input, page.Cursor)
}

// ScanSecondaryIndex queries the overloaded secondary index for items whose
// GSI1SK begins with skPrefix, in ascending order.
func (e *Executor) ScanSecondaryIndex(ctx context.Context, gsi1pk, gsi1skPrefix string, page PageRequest) (PageResult, error) {
	if gsi1pk == "" {
		return PageResult{}, errors.NewValidationError("index partition key must not be empty")
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(e.table),
		IndexName:              aws.String(e.index),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: gsi1pk},
		},
		Limit:            aws.Int32(page.effectiveLimit()),
		ScanIndexForward: aws.Bool(true),
	}
	if gsi1skPrefix != "" {
		input.KeyConditionExpression = aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :sk)")
		input.ExpressionAttributeValues[":sk"] = &types.AttributeValueMemberS{Value: gsi1skPrefix}
	}

	return e.queryPage(ctx, "ScanSecondaryIndex", input, page.Cursor)
}

func (e *Executor) queryPage(ctx context.Context, operation string, input *dynamodb.QueryInput, cursor string) (PageResult, error) {
	startKey, err := decodeCursor(cursor)
	if err != nil {
		return PageResult{}, err
	}
	input.ExclusiveStartKey = startKey

	var out *dynamodb.QueryOutput
	err = e.retry.withRetry(ctx, operation, func() error {
		var err error
		out, err = e.client.Query(ctx, input)
		return err
	})
	if err != nil {
		return PageResult{}, e.classify(ctx, operation, err)
	}

	entities := make([]model.Entity, 0, len(out.Items))
	for _, item := range out.Items {
		entity, err := Decode(item)
		if err != nil {
			return PageResult{}, err
		}
		entities = append(entities, entity)
	}

	next, err := encodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return PageResult{}, err
	}

	return PageResult{Entities: entities, NextCursor: next}, nil
}

// PutOption tweaks a single-item write.
type PutOption func(*putOptions)

type putOptions struct {
	createGuard bool
}

// WithCreateGuard makes the put fail with ConstraintViolation when an item
// already exists at the entity's key.
func WithCreateGuard() PutOption {
	return func(o *putOptions) { o.createGuard = true }
}

// PutItem validates, timestamps, encodes and writes one entity.
func (e *Executor) PutItem(ctx context.Context, entity model.Entity, opts ...PutOption) error {
	var options putOptions
	for _, opt := range opts {
		opt(&options)
	}

	Touch(entity, e.clock())
	if err := entity.Validate(); err != nil {
		return err
	}
	item, err := Encode(entity)
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(e.table),
		Item:      item,
	}
	if options.createGuard {
		input.ConditionExpression = aws.String("attribute_not_exists(PK)")
	}

	err = e.retry.withRetry(ctx, "PutItem", func() error {
		_, err := e.client.PutItem(ctx, input)
		return err
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if stderrors.As(err, &conditionFailed) {
			e.count(ctx, "ConstraintViolation", "PutItem")
			return errors.NewConstraintViolationError(resourceLabel(mustKey(entity)) + " already exists")
		}
		return e.classify(ctx, "PutItem", err)
	}
	return nil
}

// UpdateItem applies an update expression to the item at key, requiring the
// item to exist unless the caller supplies its own condition.
func (e *Executor) UpdateItem(ctx context.Context, key ItemKey, update expression.UpdateBuilder, condition expression.ConditionBuilder) error {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return errors.NewInternalError("build update expression").WithCause(err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(e.table),
		Key:                       key.attributeValues(),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	err = e.retry.withRetry(ctx, "UpdateItem", func() error {
		_, err := e.client.UpdateItem(ctx, input)
		return err
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if stderrors.As(err, &conditionFailed) {
			e.count(ctx, "ConstraintViolation", "UpdateItem")
			return errors.NewConstraintViolationError("update condition failed for " + resourceLabel(key))
		}
		return e.classify(ctx, "UpdateItem", err)
	}
	return nil
}

// DeleteItem removes the item at key. Deleting an absent item is not an
// error; the caller checks existence first when that matters.
func (e *Executor) DeleteItem(ctx context.Context, key ItemKey) error {
	err := e.retry.withRetry(ctx, "DeleteItem", func() error {
		_, err := e.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(e.table),
			Key:       key.attributeValues(),
		})
		return err
	})
	if err != nil {
		return e.classify(ctx, "DeleteItem", err)
	}
	return nil
}

// TransactWrite commits the write set atomically. Either every staged write
// applies or none does. A cancellation caused by contention surfaces as
// TransactionConflict; one caused by a failed guard surfaces as
// ConstraintViolation.
func (e *Executor) TransactWrite(ctx context.Context, ws *WriteSet) error {
	items, err := ws.build(e.table, e.clock())
	if err != nil {
		return err
	}

	err = e.retry.withRetry(ctx, "TransactWrite", func() error {
		_, err := e.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		})
		return err
	})
	if err != nil {
		return e.classifyTransact(ctx, err)
	}
	return nil
}

// classify maps a store error that survived retries into the application
// taxonomy. Retry exhaustion already arrives as StoreUnavailable.
func (e *Executor) classify(ctx context.Context, operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.IsAppError(err) {
		if errors.IsStoreUnavailable(err) {
			e.count(ctx, "StoreUnavailable", operation)
			e.logger.Error("store operation exhausted retries",
				zap.String("operation", operation),
				zap.Error(err))
		}
		return err
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var conflict *types.TransactionConflictException
	if stderrors.As(err, &conflict) {
		e.count(ctx, "TransactionConflict", operation)
		return errors.NewTransactionConflictError("item is locked by a concurrent transaction")
	}

	e.logger.Error("store operation failed",
		zap.String("operation", operation),
		zap.Error(err))
	return errors.NewDatabaseError(operation, err)
}

// classifyTransact maps a cancelled transaction onto the taxonomy by its
// cancellation reasons.
func (e *Executor) classifyTransact(ctx context.Context, err error) error {
	var cancelled *types.TransactionCanceledException
	if stderrors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if reason.Code == nil {
				continue
			}
			if *reason.Code == "TransactionConflict" {
				e.count(ctx, "TransactionConflict", "TransactWrite")
				return errors.NewTransactionConflictError("transaction lost a write conflict")
			}
		}
		for _, reason := range cancelled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				e.count(ctx, "ConstraintViolation", "TransactWrite")
				return errors.NewConstraintViolationError("a transaction guard failed")
			}
		}
	}

	var inProgress *types.TransactionInProgressException
	if stderrors.As(err, &inProgress) {
		e.count(ctx, "TransactionConflict", "TransactWrite")
		return errors.NewTransactionConflictError("an identical transaction is already in flight")
	}

	return e.classify(ctx, "TransactWrite", err)
}

func (e *Executor) count(ctx context.Context, metric, operation string) {
	e.metrics.IncrementCounter(ctx, metric, map[string]string{
		"Operation": operation,
		"Table":     e.table,
	})
}

// mustKey derives the primary key of an already-validated entity.
func mustKey(entity model.Entity) ItemKey {
	key, _, err := KeyFor(entity)
	if err != nil {
		return ItemKey{}
	}
	return key
}

// resourceLabel names the entity kind a key addresses, for error messages.
// The sort key is the more specific of the pair, so it wins when prefixed.
func resourceLabel(key ItemKey) string {
	for prefix, label := range map[string]string{
		PrefixEnrollment:  "enrollment",
		PrefixProgress:    "lesson progress",
		PrefixLesson:      "lesson",
		PrefixTransaction: "transaction",
	} {
		if strings.HasPrefix(key.SK, prefix) {
			return label
		}
	}
	for prefix, label := range map[string]string{
		PrefixUser:        "user",
		PrefixEmail:       "email reservation",
		PrefixCourse:      "course",
		PrefixTransaction: "transaction",
		PrefixCategory:    "category",
	} {
		if strings.HasPrefix(key.PK, prefix) {
			return label
		}
	}
	return "item"
}
