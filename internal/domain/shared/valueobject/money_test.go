package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency(t *testing.T) {
	t.Run("supported codes are valid", func(t *testing.T) {
		for _, c := range []Currency{USD, EUR, GBP, AED, SAR, LBP} {
			assert.True(t, c.IsValid(), string(c))
		}
	})

	t.Run("unknown codes are invalid", func(t *testing.T) {
		assert.False(t, Currency("XYZ").IsValid())
		assert.False(t, Currency("usd").IsValid())
		assert.False(t, Currency("").IsValid())
	})
}

func TestNewMoney(t *testing.T) {
	t.Run("creates money with amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(12.34), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.Equal(t, "12.34", m.StringFixed(2))
	})

	t.Run("fails with empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1), Currency(""))
		assert.Error(t, err)
	})

	t.Run("from string", func(t *testing.T) {
		m, err := NewMoneyFromString("99.99", EUR)
		require.NoError(t, err)
		assert.Equal(t, EUR, m.Currency())
		assert.Equal(t, "99.99", m.StringFixed(2))
	})

	t.Run("from invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", USD)
		assert.Error(t, err)
	})
}

func TestMoneyArithmetic(t *testing.T) {
	ten := NewMoneyUSDFromFloat(10.00)
	five := NewMoneyUSDFromFloat(5.00)
	fiveEUR, _ := NewMoneyFromString("5.00", EUR)

	t.Run("add same currency", func(t *testing.T) {
		sum, err := ten.Add(five)
		require.NoError(t, err)
		assert.Equal(t, "15.00", sum.StringFixed(2))
	})

	t.Run("add mismatched currency fails", func(t *testing.T) {
		_, err := ten.Add(fiveEUR)
		assert.Error(t, err)
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := ten.Subtract(five)
		require.NoError(t, err)
		assert.Equal(t, "5.00", diff.StringFixed(2))

		_, err = ten.Subtract(fiveEUR)
		assert.Error(t, err)
	})

	t.Run("multiply", func(t *testing.T) {
		assert.Equal(t, "25.00", five.MultiplyByInt(5).StringFixed(2))
		assert.Equal(t, "2.50", five.Multiply(decimal.NewFromFloat(0.5)).StringFixed(2))
	})

	t.Run("immutability", func(t *testing.T) {
		_, err := ten.Add(five)
		require.NoError(t, err)
		assert.Equal(t, "10.00", ten.StringFixed(2))
	})
}

func TestMoneyComparison(t *testing.T) {
	ten := NewMoneyUSDFromFloat(10.00)
	five := NewMoneyUSDFromFloat(5.00)
	fiveEUR, _ := NewMoneyFromString("5.00", EUR)

	t.Run("equals", func(t *testing.T) {
		assert.True(t, five.Equals(NewMoneyUSDFromFloat(5.00)))
		assert.False(t, five.Equals(ten))
		assert.False(t, five.Equals(fiveEUR))
	})

	t.Run("less and greater", func(t *testing.T) {
		less, err := five.LessThan(ten)
		require.NoError(t, err)
		assert.True(t, less)

		greater, err := ten.GreaterThan(five)
		require.NoError(t, err)
		assert.True(t, greater)

		_, err = five.LessThan(fiveEUR)
		assert.Error(t, err)
	})

	t.Run("sign checks", func(t *testing.T) {
		assert.True(t, Zero(USD).IsZero())
		assert.True(t, ten.IsPositive())
		assert.True(t, NewMoneyUSDFromFloat(-1).IsNegative())
	})
}

func TestMoneyJSON(t *testing.T) {
	t.Run("round trips through JSON", func(t *testing.T) {
		m, _ := NewMoneyFromString("42.50", GBP)

		data, err := json.Marshal(m)
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":"42.5","currency":"GBP"}`, string(data))

		var decoded Money
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, m.Equals(decoded))
	})

	t.Run("rejects invalid amount", func(t *testing.T) {
		var decoded Money
		err := json.Unmarshal([]byte(`{"amount":"abc","currency":"USD"}`), &decoded)
		assert.Error(t, err)
	})
}

func TestMoneyScan(t *testing.T) {
	t.Run("scans numeric string", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("12.3400"))
		assert.Equal(t, "12.34", m.StringFixed(2))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("scans bytes", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan([]byte("7.00")))
		assert.Equal(t, "7.00", m.StringFixed(2))
	})

	t.Run("nil scans to zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(12.34))
	})

	t.Run("value stores the amount", func(t *testing.T) {
		m, _ := NewMoneyFromString("3.5", USD)
		v, err := m.Value()
		require.NoError(t, err)
		assert.Equal(t, "3.5", v)
	})
}
