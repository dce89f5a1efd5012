package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentsRounding(t *testing.T) {
	assert.Equal(t, int64(1234), Cents(decimal.RequireFromString("12.344")))
	assert.Equal(t, int64(1235), Cents(decimal.RequireFromString("12.345")))
	assert.Equal(t, int64(0), Cents(decimal.Zero))
}

func TestFromString(t *testing.T) {
	cents, err := FromString("49.99")
	require.NoError(t, err)
	assert.Equal(t, int64(4999), cents)

	_, err = FromString("abc")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "5.00", Format(500))
	assert.Equal(t, "0.07", Format(7))
	assert.Equal(t, "1234.50", Format(123450))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, int64(1000), Percent(10000, decimal.NewFromInt(10)))
	assert.Equal(t, int64(1498), Percent(10000, decimal.RequireFromString("14.975")))
}
