package parameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfigString(t *testing.T) {
	params := NewFromConfigString(" weights=models/a=b.json , epsilon=0.05,,record ")
	assert.Equal(t, Params{"weights": "models/a=b.json", "epsilon": "0.05", "record": ""}, params)
	assert.Empty(t, NewFromConfigString(""))
}

func TestGetAndPop(t *testing.T) {
	params := NewFromConfigString("epsilon=0.25,seed=7,record,alternate=false,name=bob,lr=0.5")

	epsilon, err := PopParamOr(params, "epsilon", float32(0.6))
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), epsilon)
	_, found := params["epsilon"]
	assert.False(t, found)

	seed, err := GetParamOr(params, "seed", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, seed)
	_, found = params["seed"]
	assert.True(t, found, "GetParamOr should not remove the key")

	record, err := PopParamOr(params, "record", false)
	require.NoError(t, err)
	assert.True(t, record)
	alternate, err := PopParamOr(params, "alternate", true)
	require.NoError(t, err)
	assert.False(t, alternate)

	name, err := PopParamOr(params, "name", "")
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
	lr, err := PopParamOr(params, "lr", 0.01)
	require.NoError(t, err)
	assert.Equal(t, 0.5, lr)

	missing, err := PopParamOr(params, "missing", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, missing)

	assert.ErrorContains(t, CheckAllConsumed(params), "seed")
	delete(params, "seed")
	assert.NoError(t, CheckAllConsumed(params))
}

func TestParseErrors(t *testing.T) {
	params := NewFromConfigString("seed=abc,record=maybe,epsilon=x")
	_, err := GetParamOr(params, "seed", 0)
	assert.Error(t, err)
	_, err = GetParamOr(params, "record", false)
	assert.Error(t, err)
	_, err = PopParamOr(params, "epsilon", float32(0))
	assert.Error(t, err)
	_, found := params["epsilon"]
	assert.True(t, found, "a failed PopParamOr should leave the key")
}
