package appendable_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/fwdindex/appendable"
	"github.com/viant/fwdindex/storage"
)

type fileID uint32

func TestInlined(t *testing.T) {
	var s appendable.ObjectStorage[fileID] = appendable.NewIntInlined[fileID]()

	id, err := s.Append(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	v, err := s.Read(id)
	require.NoError(t, err)
	assert.Equal(t, fileID(42), v)

	same, err := s.CheckBytesAreTheSame(id, 42)
	require.NoError(t, err)
	assert.False(t, same)

	_, err = s.Read(math.MaxInt32 + 1)
	assert.ErrorIs(t, err, storage.ErrNoData)

	_, err = s.ProcessAll(context.Background(), func(int64, fileID) bool { return true })
	assert.ErrorIs(t, err, appendable.ErrUnsupported)
	assert.ErrorIs(t, s.View(context.Background(), nil), appendable.ErrUnsupported)
	assert.ErrorIs(t, s.Update(context.Background(), nil), appendable.ErrUnsupported)

	assert.Equal(t, int64(0), s.CurrentLength())
	assert.NoError(t, s.Force())
	assert.NoError(t, s.Clear())
	assert.NoError(t, s.Close())
}

func TestInlined_CustomMapping(t *testing.T) {
	type color struct{ rgb int32 }
	s := appendable.NewInlined(func(c color) int32 { return c.rgb }, func(id int32) color { return color{rgb: id} })
	id, err := s.Append(color{rgb: -5})
	require.NoError(t, err)
	assert.Equal(t, int64(-5), id)
	v, err := s.Read(id)
	require.NoError(t, err)
	assert.Equal(t, color{rgb: -5}, v)
}

func TestIntInlined_OutOfRange(t *testing.T) {
	wide := appendable.NewIntInlined[int64]()
	for _, v := range []int64{1 << 40, math.MaxInt32 + 1, math.MinInt32 - 1} {
		_, err := wide.Append(v)
		assert.ErrorIs(t, err, appendable.ErrOutOfRange, "value %d", v)
	}
	for _, v := range []int64{0, -1, math.MaxInt32, math.MinInt32} {
		id, err := wide.Append(v)
		require.NoError(t, err)
		got, err := wide.Read(id)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	unsigned := appendable.NewIntInlined[uint64]()
	_, err := unsigned.Append(math.MaxUint32 + 1)
	assert.ErrorIs(t, err, appendable.ErrOutOfRange)
	_, err = unsigned.Append(1 << 31)
	assert.ErrorIs(t, err, appendable.ErrOutOfRange)
}
