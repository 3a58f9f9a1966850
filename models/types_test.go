// ABOUTME: Tests for backend data models
// ABOUTME: Covers tolerant template field decoding, enums and decimal prices
package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateFieldsDecodeArray(t *testing.T) {
	var tmpl CatalogTemplate
	err := json.Unmarshal([]byte(`{"id":"t1","name":"Shoes","fields":[
		{"key":"size","label":"Size","type":"dropdown","required":true,"options":["S","M"]},
		{"key":"color","label":"Color","type":"text"}]}`), &tmpl)
	require.NoError(t, err)

	require.Len(t, tmpl.Fields, 2)
	assert.Equal(t, "size", tmpl.Fields[0].Key)
	assert.Equal(t, FieldDropdown, tmpl.Fields[0].Type)
	assert.Equal(t, []string{"S", "M"}, tmpl.Fields[0].Options)
	assert.Equal(t, "color", tmpl.Fields[1].Key)
}

func TestTemplateFieldsDecodeObject(t *testing.T) {
	var tmpl CatalogTemplate
	err := json.Unmarshal([]byte(`{"id":"t1","fields":{
		"weight":{"label":"Weight","type":"number"},
		"brand":{"label":"Brand","type":"text","required":true}}}`), &tmpl)
	require.NoError(t, err)

	require.Len(t, tmpl.Fields, 2)
	// object keys come back sorted
	assert.Equal(t, "brand", tmpl.Fields[0].Key)
	assert.True(t, tmpl.Fields[0].Required)
	assert.Equal(t, "weight", tmpl.Fields[1].Key)
}

func TestTemplateFieldsDecodeEncodedString(t *testing.T) {
	var tmpl CatalogTemplate
	err := json.Unmarshal([]byte(`{"id":"t1","fields":"[{\"key\":\"isbn\",\"label\":\"ISBN\",\"type\":\"text\"}]"}`), &tmpl)
	require.NoError(t, err)

	require.Len(t, tmpl.Fields, 1)
	assert.Equal(t, "isbn", tmpl.Fields[0].Key)
}

func TestTemplateFieldsDecodeNullAndEmpty(t *testing.T) {
	var tmpl CatalogTemplate
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","fields":null}`), &tmpl))
	assert.Empty(t, tmpl.Fields)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"t2","fields":""}`), &tmpl))
	assert.Empty(t, tmpl.Fields)
}

func TestTemplateFieldsDecodeRejectsScalar(t *testing.T) {
	var tmpl CatalogTemplate
	err := json.Unmarshal([]byte(`{"id":"t1","fields":42}`), &tmpl)
	assert.Error(t, err)
}

func TestCatalogItemPriceDecimal(t *testing.T) {
	var item CatalogItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c1","name":"Widget","price":"9.99","currency":"USD"}`), &item))
	assert.True(t, item.Price.Equal(decimal.RequireFromString("9.99")))

	require.NoError(t, json.Unmarshal([]byte(`{"id":"c2","name":"Bolt","price":0.1}`), &item))
	assert.Equal(t, "0.1", item.Price.String())
}

func TestEnums(t *testing.T) {
	if !AvailabilityPreorder.Valid() {
		t.Errorf("expected preorder to be valid")
	}
	if Availability("sold").Valid() {
		t.Errorf("expected unknown availability to be invalid")
	}
	if !FieldDate.Valid() || FieldType("color").Valid() {
		t.Errorf("field type validation mismatch")
	}
	assert.True(t, OneOf(LeadStatusWon, LeadStatuses))
	assert.False(t, OneOf("archived", ContactStatuses))
}

func TestPaginationHasNext(t *testing.T) {
	var nilPage *Pagination
	assert.False(t, nilPage.HasNext())
	assert.True(t, (&Pagination{Page: 1, TotalPages: 3}).HasNext())
	assert.False(t, (&Pagination{Page: 3, TotalPages: 3}).HasNext())
}

func TestIDs(t *testing.T) {
	channels := []Channel{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, []string{"a", "b"}, IDs(channels))
	assert.Empty(t, IDs([]Tool{}))
}

func TestBusinessNeedsOnboarding(t *testing.T) {
	var b *Business
	assert.True(t, b.NeedsOnboarding())
	assert.True(t, (&Business{ID: "b1"}).NeedsOnboarding())
	assert.False(t, (&Business{ID: "b1", OnboardingCompleted: true}).NeedsOnboarding())
}
