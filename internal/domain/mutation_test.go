package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImage_EncodeDecodePreservesKindsAndOrder(t *testing.T) {
	img := Image{
		{Name: "id", Value: IntValue(7)},
		{Name: "percentage", Value: FloatValue(40)},
		{Name: "fund_code", Value: TextValue("10000")},
		{Name: "source", Value: Null()},
	}
	raw, err := img.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "\n")

	got, err := DecodeImage(raw)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "id", got[0].Name)
	assert.Equal(t, KindInt, got[0].Value.Kind)
	assert.Equal(t, KindFloat, got[1].Value.Kind, "whole floats must stay floats")
	assert.Equal(t, 40.0, got[1].Value.Float)
	assert.Equal(t, KindNull, got[3].Value.Kind)
}

func TestImage_NilEncodesAsNil(t *testing.T) {
	raw, err := Image(nil).Encode()
	require.NoError(t, err)
	assert.Nil(t, raw)

	img, err := DecodeImage(nil)
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestChanged_OnlyDifferingColumns(t *testing.T) {
	before := Image{
		{Name: "id", Value: IntValue(1)},
		{Name: "salary", Value: FloatValue(100)},
		{Name: "end_year", Value: Null()},
	}
	after := Image{
		{Name: "id", Value: IntValue(1)},
		{Name: "salary", Value: FloatValue(110)},
		{Name: "end_year", Value: IntValue(2025)},
	}
	b, a := Changed(before, after)
	require.Len(t, b, 2)
	require.Len(t, a, 2)
	assert.Equal(t, "salary", b[0].Name)
	assert.Equal(t, 100.0, b[0].Value.Float)
	assert.Equal(t, KindNull, b[1].Value.Kind)
	assert.Equal(t, int64(2025), a[1].Value.Int)

	b, a = Changed(before, before)
	assert.Empty(t, b)
	assert.Empty(t, a)
}

func TestValueOf(t *testing.T) {
	v, err := ValueOf([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, TextValue("abc"), v)

	_, err = ValueOf(struct{}{})
	assert.Error(t, err)

	assert.Nil(t, Null().SQLArg())
	assert.Equal(t, int64(3), IntValue(3).SQLArg())
}
