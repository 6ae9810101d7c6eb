package mongo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type amountDoc struct {
	Amount decimal.Decimal `bson:"amount"`
}

func TestDecimalCodec_StoresDecimal128(t *testing.T) {
	reg := NewRegistry()

	data, err := bson.MarshalWithRegistry(reg, amountDoc{Amount: decimal.RequireFromString("12800.50")})
	require.NoError(t, err)

	raw := bson.Raw(data)
	value := raw.Lookup("amount")
	d128, ok := value.Decimal128OK()
	require.True(t, ok, "amount should be stored as Decimal128, got %v", value.Type)
	assert.Equal(t, "12800.50", d128.String())

	var out amountDoc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, data, &out))
	assert.True(t, out.Amount.Equal(decimal.RequireFromString("12800.5")))
}

func TestDecimalCodec_DecodesLegacyNumbers(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		doc  bson.M
		want string
	}{
		{"double", bson.M{"amount": 99.5}, "99.5"},
		{"int32", bson.M{"amount": int32(500)}, "500"},
		{"int64", bson.M{"amount": int64(12000)}, "12000"},
		{"string", bson.M{"amount": "4500.25"}, "4500.25"},
		{"decimal128", bson.M{"amount": mustDecimal128(t, "800")}, "800"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(tt.doc)
			require.NoError(t, err)

			var out amountDoc
			require.NoError(t, bson.UnmarshalWithRegistry(reg, data, &out))
			assert.True(t, out.Amount.Equal(decimal.RequireFromString(tt.want)), "got %s", out.Amount)
		})
	}
}

func mustDecimal128(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}
