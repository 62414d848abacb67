package dynamodb

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/frankkinuthian/lms-v3/domain/model"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// MaxTransactWriteItems is the store's hard cap on writes per transaction.
const MaxTransactWriteItems = 100

type writeKind int

const (
	writePut writeKind = iota
	writeCreate
	writeDelete
	writeDeleteExisting
	writeUpdate
	writeCheck
)

type writeOp struct {
	kind      writeKind
	entity    model.Entity
	key       ItemKey
	condition expression.ConditionBuilder
	update    expression.UpdateBuilder
}

// WriteSet accumulates the writes of one atomic transaction. Build errors are
// latched and surfaced by the executor so call sites can chain methods without
// checking each one.
type WriteSet struct {
	ops []writeOp
	err error
}

// NewWriteSet returns an empty write set.
func NewWriteSet() *WriteSet {
	return &WriteSet{}
}

func (ws *WriteSet) add(op writeOp) *WriteSet {
	if ws.err != nil {
		return ws
	}
	if len(ws.ops) >= MaxTransactWriteItems {
		ws.err = errors.NewValidationError("transaction exceeds the maximum number of writes")
		return ws
	}
	ws.ops = append(ws.ops, op)
	return ws
}

// Put stages an unconditional upsert of the entity.
func (ws *WriteSet) Put(e model.Entity) *WriteSet {
	return ws.add(writeOp{kind: writePut, entity: e})
}

// Create stages a put guarded by the item not already existing. The guard is
// what turns a key collision into a ConstraintViolation instead of a silent
// overwrite.
func (ws *WriteSet) Create(e model.Entity) *WriteSet {
	return ws.add(writeOp{kind: writeCreate, entity: e})
}

// Delete stages an unconditional delete of the item at key.
func (ws *WriteSet) Delete(key ItemKey) *WriteSet {
	return ws.add(writeOp{kind: writeDelete, key: key})
}

// DeleteExisting stages a delete that fails the transaction when the item is
// already gone.
func (ws *WriteSet) DeleteExisting(key ItemKey) *WriteSet {
	return ws.add(writeOp{kind: writeDeleteExisting, key: key})
}

// Update stages a conditional update expression against the item at key.
func (ws *WriteSet) Update(key ItemKey, update expression.UpdateBuilder, condition expression.ConditionBuilder) *WriteSet {
	return ws.add(writeOp{kind: writeUpdate, key: key, update: update, condition: condition})
}

// Check stages a condition that must hold on the item at key without writing
// it. Used to pin reads the transaction depends on.
func (ws *WriteSet) Check(key ItemKey, condition expression.ConditionBuilder) *WriteSet {
	return ws.add(writeOp{kind: writeCheck, key: key, condition: condition})
}

// Len reports how many writes are staged.
func (ws *WriteSet) Len() int { return len(ws.ops) }

// Err reports the first build error, if any.
func (ws *WriteSet) Err() error { return ws.err }

// build lowers the staged writes into the store's wire form. Entities are
// timestamped here, immediately before encoding, so the same write set cannot
// be committed twice with stale timestamps.
func (ws *WriteSet) build(table string, now time.Time) ([]types.TransactWriteItem, error) {
	if ws.err != nil {
		return nil, ws.err
	}
	if len(ws.ops) == 0 {
		return nil, errors.NewValidationError("transaction must contain at least one write")
	}

	out := make([]types.TransactWriteItem, 0, len(ws.ops))
	for _, op := range ws.ops {
		switch op.kind {
		case writePut, writeCreate:
			Touch(op.entity, now)
			if err := op.entity.Validate(); err != nil {
				return nil, err
			}
			item, err := Encode(op.entity)
			if err != nil {
				return nil, err
			}
			put := &types.Put{
				TableName: aws.String(table),
				Item:      item,
			}
			if op.kind == writeCreate {
				expr, err := expression.NewBuilder().
					WithCondition(expression.AttributeNotExists(expression.Name(attrPK))).
					Build()
				if err != nil {
					return nil, errors.NewInternalError("build create guard expression").WithCause(err)
				}
				put.ConditionExpression = expr.Condition()
				put.ExpressionAttributeNames = expr.Names()
			}
			out = append(out, types.TransactWriteItem{Put: put})

		case writeDelete, writeDeleteExisting:
			del := &types.Delete{
				TableName: aws.String(table),
				Key:       op.key.attributeValues(),
			}
			if op.kind == writeDeleteExisting {
				expr, err := expression.NewBuilder().
					WithCondition(expression.AttributeExists(expression.Name(attrPK))).
					Build()
				if err != nil {
					return nil, errors.NewInternalError("build delete guard expression").WithCause(err)
				}
				del.ConditionExpression = expr.Condition()
				del.ExpressionAttributeNames = expr.Names()
			}
			out = append(out, types.TransactWriteItem{Delete: del})

		case writeUpdate:
			expr, err := expression.NewBuilder().
				WithUpdate(op.update).
				WithCondition(op.condition).
				Build()
			if err != nil {
				return nil, errors.NewInternalError("build update expression").WithCause(err)
			}
			out = append(out, types.TransactWriteItem{Update: &types.Update{
				TableName:                 aws.String(table),
				Key:                       op.key.attributeValues(),
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			}})

		case writeCheck:
			expr, err := expression.NewBuilder().
				WithCondition(op.condition).
				Build()
			if err != nil {
				return nil, errors.NewInternalError("build condition check expression").WithCause(err)
			}
			out = append(out, types.TransactWriteItem{ConditionCheck: &types.ConditionCheck{
				TableName:                 aws.String(table),
				Key:                       op.key.attributeValues(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			}})
		}
	}

	return out, nil
}

// attributeValues renders the key in the store's wire form.
func (k ItemKey) attributeValues() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: k.PK},
		attrSK: &types.AttributeValueMemberS{Value: k.SK},
	}
}
