package asset

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	amount, err := ToBaseUnits(decimal.RequireFromString("1.7"), 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(170), amount)

	amount, err = ToBaseUnits(decimal.RequireFromString("0.000000001"), 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), amount)

	amount, err = ToBaseUnits(decimal.NewFromInt(42), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), amount)
}

func TestToBaseUnitsRejectsInexact(t *testing.T) {
	_, err := ToBaseUnits(decimal.RequireFromString("1.234"), 2)
	assert.Error(t, err)

	_, err = ToBaseUnits(decimal.RequireFromString("-1"), 2)
	assert.Error(t, err)

	_, err = ToBaseUnits(decimal.RequireFromString("100000000000000000000"), 9)
	assert.Error(t, err)
}

func TestHuman(t *testing.T) {
	a := Asset{Denomination: 2}
	assert.Equal(t, "1.7", a.Human(170).String())

	units, err := a.BaseUnits(a.Human(12345))
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), units)
}
