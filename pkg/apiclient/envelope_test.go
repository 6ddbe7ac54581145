package apiclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordNullPayloadIsNotAnError(t *testing.T) {
	env, err := decodeEnvelope(200, []byte(`{"status":"ERROR","data":null}`))
	require.NoError(t, err)

	rec, err := env.Record()
	require.NoError(t, err, "null is the not-found shape, not a decode failure")
	assert.Nil(t, rec)
}

func TestRecordsNullPayloadYieldsEmptyList(t *testing.T) {
	env, err := decodeEnvelope(200, []byte(`{"status":"OK","data":null}`))
	require.NoError(t, err)

	recs, err := env.Records()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestDataTextDecodesBareStringPayload(t *testing.T) {
	env, err := decodeEnvelope(400, []byte(`{"status":"ERROR","data":"COUPON_CODE_ALREADY_EXISTS"}`))
	require.NoError(t, err)
	assert.Equal(t, "COUPON_CODE_ALREADY_EXISTS", env.DataText())
}

func TestRecordIDPrefersUnderscore(t *testing.T) {
	assert.Equal(t, "mongo-id", Record{"_id": "mongo-id", "id": "other"}.ID())
	assert.Equal(t, "plain-id", Record{"id": "plain-id"}.ID())
	assert.Equal(t, "", Record{}.ID())
}

func TestResolveRelation(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"bare string id", "g1", "g1"},
		{"embedded object", map[string]interface{}{"_id": "g2", "name": "summer"}, "g2"},
		{"object without _id", map[string]interface{}{"name": "summer"}, ""},
		{"nil", nil, ""},
		{"number", 42.0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRelation(tt.in))
		})
	}
}

func TestRelationReadsBothShapes(t *testing.T) {
	list := Record{"group": "g1"}
	detail := Record{"group": map[string]interface{}{"_id": "g1", "name": "summer"}}
	assert.Equal(t, "g1", list.Relation("group"))
	assert.Equal(t, "g1", detail.Relation("group"))
}
