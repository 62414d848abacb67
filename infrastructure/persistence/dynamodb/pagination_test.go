package dynamodb

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

func TestCursor_RoundTrip(t *testing.T) {
	lastKey := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "USER#u1"},
		"SK": &types.AttributeValueMemberS{Value: "ENROLLMENT#c5"},
	}

	cursor, err := encodeCursor(lastKey)
	require.NoError(t, err)
	require.NotEmpty(t, cursor)

	decoded, err := decodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, lastKey, decoded)
}

func TestCursor_EmptyLastKeyMeansNoCursor(t *testing.T) {
	cursor, err := encodeCursor(nil)

	require.NoError(t, err)
	assert.Empty(t, cursor)
}

func TestDecodeCursor_EmptyCursor(t *testing.T) {
	decoded, err := decodeCursor("")

	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeCursor_Garbage(t *testing.T) {
	_, err := decodeCursor("not base64 at all!!!")

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestDecodeCursor_ValidBase64InvalidJSON(t *testing.T) {
	_, err := decodeCursor("bm90LWpzb24")

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestPageRequest_EffectiveLimit(t *testing.T) {
	assert.Equal(t, int32(DefaultPageSize), PageRequest{}.effectiveLimit())
	assert.Equal(t, int32(DefaultPageSize), PageRequest{Limit: -5}.effectiveLimit())
	assert.Equal(t, int32(7), PageRequest{Limit: 7}.effectiveLimit())
	assert.Equal(t, int32(MaxPageSize), PageRequest{Limit: 5000}.effectiveLimit())
}
