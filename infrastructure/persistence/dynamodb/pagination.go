package dynamodb

import (
	"encoding/base64"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/frankkinuthian/lms-v3/domain/model"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

const (
	// DefaultPageSize is applied when a caller passes a non-positive limit.
	DefaultPageSize = 20
	// MaxPageSize caps a single page regardless of what the caller asks for.
	MaxPageSize = 100
)

// PageRequest carries the caller's pagination inputs. Cursor is an opaque
// token from a previous PageResult; empty means start from the beginning.
type PageRequest struct {
	Limit  int
	Cursor string
}

// PageResult is one page of decoded entities. NextCursor is empty when the
// scan is exhausted; otherwise it resumes the scan exactly where this page
// stopped, even across interleaved writes.
type PageResult struct {
	Entities   []model.Entity
	NextCursor string
}

// effectiveLimit clamps the requested page size into [1, MaxPageSize].
func (r PageRequest) effectiveLimit() int32 {
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return int32(limit)
}

// cursorPayload is the wire form of a continuation token. Only string key
// attributes appear in LastEvaluatedKey for this table, so a flat string map
// round-trips it exactly.
type cursorPayload map[string]string

// encodeCursor serializes a LastEvaluatedKey into an opaque token. A nil key
// yields the empty token, meaning no further pages.
func encodeCursor(lastKey map[string]types.AttributeValue) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}

	payload := make(cursorPayload, len(lastKey))
	for name, av := range lastKey {
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return "", errors.NewInternalError("encode continuation token").
				WithDetails(map[string]interface{}{"attribute": name})
		}
		payload[name] = s.Value
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.NewInternalError("encode continuation token").WithCause(err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// decodeCursor reverses encodeCursor. Tokens are opaque to callers; anything
// that fails to parse is rejected as a validation error rather than passed
// through to the store.
func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, errors.NewValidationError("invalid continuation token").WithCause(err)
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NewValidationError("invalid continuation token").WithCause(err)
	}
	if len(payload) == 0 {
		return nil, errors.NewValidationError("invalid continuation token")
	}

	key := make(map[string]types.AttributeValue, len(payload))
	for name, value := range payload {
		key[name] = &types.AttributeValueMemberS{Value: value}
	}
	return key, nil
}
