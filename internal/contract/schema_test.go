package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchemasCompilesEveryEmbeddedFile(t *testing.T) {
	reg, err := LoadSchemas()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"category_list",
		"coupon_detail",
		"coupon_list",
		"coupon_subgroup_list",
		"group_list",
		"media_list",
	}, reg.Names())
}

func TestCouponSubgroupListSchema(t *testing.T) {
	reg, err := LoadSchemas()
	require.NoError(t, err)

	t.Run("subgroup relation accepts both shapes", func(t *testing.T) {
		body := []byte(`{"status": "OK", "data": [
			{"_id": "c1", "group": "g1", "subgroup": "sg1", "code": "A", "date_created": "2026-01-01"},
			{"_id": "c2", "group": "g1", "subgroup": {"_id": "sg1", "name": "weekly"}, "code": "B", "date_created": "2026-01-01"}
		]}`)
		assert.Empty(t, reg.Validate("coupon_subgroup_list", body))
	})

	t.Run("missing subgroup is reported", func(t *testing.T) {
		body := []byte(`{"status": "OK", "data": [
			{"_id": "c1", "group": "g1", "code": "A", "date_created": "2026-01-01"}
		]}`)
		require.NotEmpty(t, reg.Validate("coupon_subgroup_list", body))
	})
}

func TestCouponListSchema(t *testing.T) {
	reg, err := LoadSchemas()
	require.NoError(t, err)

	t.Run("valid with both relation shapes", func(t *testing.T) {
		body := []byte(`{"status": "OK", "data": [
			{"_id": "c1", "group": "g1", "code": "A", "date_created": "2026-01-01"},
			{"_id": "c2", "group": {"_id": "g1", "name": "seasonal"}, "code": "B", "date_created": "2026-01-01"}
		]}`)
		assert.Empty(t, reg.Validate("coupon_list", body))
	})

	t.Run("empty list is valid", func(t *testing.T) {
		assert.Empty(t, reg.Validate("coupon_list", []byte(`{"status": "OK", "data": []}`)))
	})

	t.Run("null data is valid", func(t *testing.T) {
		assert.Empty(t, reg.Validate("coupon_list", []byte(`{"status": "ERROR", "data": null}`)))
	})

	t.Run("wrong field type is reported", func(t *testing.T) {
		body := []byte(`{"status": "OK", "data": [
			{"_id": 42, "group": "g1", "code": "A", "date_created": "2026-01-01"}
		]}`)
		violations := reg.Validate("coupon_list", body)
		require.NotEmpty(t, violations)
	})

	t.Run("unexpected status tag is reported", func(t *testing.T) {
		violations := reg.Validate("coupon_list", []byte(`{"status": "MAYBE", "data": []}`))
		require.NotEmpty(t, violations)
	})
}

func TestCouponDetailSchema(t *testing.T) {
	reg, err := LoadSchemas()
	require.NoError(t, err)

	valid := []byte(`{"status": "OK", "data": {
		"_id": "c1", "group": {"_id": "g1", "name": "seasonal"}, "code": "A",
		"date_created": "2026-01-01", "is_reusable": true, "is_used": false, "is_valid": true
	}}`)
	assert.Empty(t, reg.Validate("coupon_detail", valid))

	missingFlags := []byte(`{"status": "OK", "data": {
		"_id": "c1", "group": "g1", "code": "A", "date_created": "2026-01-01"
	}}`)
	assert.NotEmpty(t, reg.Validate("coupon_detail", missingFlags))
}

func TestMediaListSchemaAllowsExtraFields(t *testing.T) {
	reg, err := LoadSchemas()
	require.NoError(t, err)

	body := []byte(`{"status": "OK", "data": [{
		"id": "m1", "_id": "m1", "title": "t", "type": "video", "status": "active",
		"duration": 120, "views": 0, "categories": [], "date_created": "2026-01-01",
		"slug": "t", "some_future_field": {"nested": true}
	}]}`)
	assert.Empty(t, reg.Validate("media_list", body), "unknown fields must not fail validation")
}

func TestValidateUnknownSchemaName(t *testing.T) {
	reg, err := LoadSchemas()
	require.NoError(t, err)

	violations := reg.Validate("no_such_schema", []byte(`{}`))
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "not registered")
}

func TestValidateRejectsNonJSONBody(t *testing.T) {
	reg, err := LoadSchemas()
	require.NoError(t, err)

	violations := reg.Validate("coupon_list", []byte(`<html>`))
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0], "not valid JSON")
}
