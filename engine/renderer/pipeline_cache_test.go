package renderer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineCacheCreatesOncePerKey(t *testing.T) {
	c := NewPipelineCache[string](nil)
	calls := 0
	create := func(k PipelineKey) (string, error) {
		calls++
		return k.String(), nil
	}

	k := PipelineKey{ProgramID: 7, ColorCount: 1, ColorFormats: [MaxColorTargets]TextureFormat{FormatRGBA16Float}}
	first, err := c.GetOrCreate(k, create)
	require.NoError(t, err)
	second, err := c.GetOrCreate(k, create)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Len())

	k.Blend.Enabled = true
	_, err = c.GetOrCreate(k, create)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, c.Len())
}

func TestPipelineCacheDoesNotStoreFailures(t *testing.T) {
	c := NewPipelineCache[int](nil)
	_, err := c.GetOrCreate(PipelineKey{ProgramID: 1}, func(PipelineKey) (int, error) { return 0, errors.New("bad shader") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad shader")
	assert.Equal(t, 0, c.Len())
}

func TestPipelineCacheInvalidateProgramReleasesOnlyThatProgram(t *testing.T) {
	var released []int
	c := NewPipelineCache(func(v int) { released = append(released, v) })

	for i, id := range []uint64{1, 1, 2} {
		k := PipelineKey{ProgramID: id, TextureMask: uint32(i)}
		_, err := c.GetOrCreate(k, func(PipelineKey) (int, error) { return i, nil })
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.InvalidateProgram(1))
	assert.ElementsMatch(t, []int{0, 1}, released)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.ElementsMatch(t, []int{0, 1, 2}, released)
}
