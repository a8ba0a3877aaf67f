package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductInput_PriceAcceptsStringOrNumber(t *testing.T) {
	cases := map[string]PriceText{
		`{"price":"19.90"}`: "19.90",
		`{"price":19.9}`:    "19.9",
		`{"price":null}`:    "",
		`{}`:                "",
	}
	for body, want := range cases {
		var in ProductInput
		require.NoError(t, json.Unmarshal([]byte(body), &in), body)
		assert.Equal(t, want, in.Price, body)
	}

	var in ProductInput
	assert.Error(t, json.Unmarshal([]byte(`{"price":true}`), &in))
}

func TestProductInput_IsNewReleaseDistinguishesAbsent(t *testing.T) {
	var absent, sent ProductInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x"}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"isNewRelease":false}`), &sent))

	assert.Nil(t, absent.IsNewRelease)
	require.NotNil(t, sent.IsNewRelease)
	assert.False(t, *sent.IsNewRelease)
}
