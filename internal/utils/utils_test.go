package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHost_Stable(t *testing.T) {
	first := GetHost()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, GetHost())
}

func TestToJSONString(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ToJSONString(map[string]int{"a": 1}))
	assert.Equal(t, "<marshal error>", ToJSONString(math.Inf(1)))
}
