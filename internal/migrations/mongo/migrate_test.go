package mongo

import (
	"testing"

	billingrepo "pgstay/internal/billing/repository"
	inventoryrepo "pgstay/internal/inventory/repository"
	usersrepo "pgstay/internal/users/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_HaveSchemaAndIndexes(t *testing.T) {
	collections := Collections()
	require.Len(t, collections, 11)

	for name, c := range collections {
		assert.NotEmpty(t, c.Indexes, "%s has no indexes", name)
		schema, ok := c.Validator["$jsonSchema"].(bson.M)
		if assert.True(t, ok, "%s has no $jsonSchema", name) {
			assert.Contains(t, schema["required"], "_id", name)
		}
	}
}

func TestCollections_UniqueConstraints(t *testing.T) {
	tests := []struct {
		collection string
		keys       []string
	}{
		{inventoryrepo.BedsCollection, []string{"room_id", "bed_number"}},
		{inventoryrepo.RoomsCollection, []string{"property_id", "room_number"}},
		{usersrepo.CollectionName, []string{"phone"}},
		{billingrepo.BillsCollection, []string{"tenant_id", "billing_month"}},
	}

	collections := Collections()
	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			assert.True(t, hasUniqueIndex(collections[tt.collection], tt.keys), "missing unique index on %v", tt.keys)
		})
	}
}

func hasUniqueIndex(c collection, keys []string) bool {
	for _, idx := range c.Indexes {
		if idx.Options == nil || idx.Options.Unique == nil || !*idx.Options.Unique {
			continue
		}
		fields, ok := idx.Keys.(bson.D)
		if !ok || len(fields) != len(keys) {
			continue
		}
		match := true
		for i, f := range fields {
			if f.Key != keys[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
