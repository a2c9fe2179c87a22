package pgrepo

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 8000, 1500.5, 0.625, 150000} {
		assert.InDelta(t, v, numericToFloat64(float64ToNumeric(v)), 1e-9)
	}
	assert.Zero(t, numericToFloat64(pgtype.Numeric{}))
}

func TestNullableNumeric(t *testing.T) {
	assert.Nil(t, numericToFloat64Ptr(float64PtrToNumeric(nil)))

	v := 30.0
	got := numericToFloat64Ptr(float64PtrToNumeric(&v))
	require.NotNil(t, got)
	assert.Equal(t, 30.0, *got)
}

func TestNullableInt(t *testing.T) {
	assert.Nil(t, int4ToIntPtr(intPtrToInt4(nil)))
	two := 2
	assert.Equal(t, 2, *int4ToIntPtr(intPtrToInt4(&two)))
}

func TestNullableUUID(t *testing.T) {
	assert.Nil(t, nullableUUID(""))
	assert.Equal(t, "abc", *nullableUUID("abc"))
}
