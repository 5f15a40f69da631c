package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositiveCapacities(t *testing.T) {
	_, err := New(0, 20)
	assert.Error(t, err)
	_, err = New(5, -1)
	assert.Error(t, err)
}

func TestPushEvictsOldestFirst(t *testing.T) {
	w, err := New(3, 5)
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		w.Push(float64(i))
	}
	assert.Equal(t, []float64{2, 3, 4}, w.ShortValues())
	assert.Equal(t, []float64{1, 2, 3, 4}, w.LongValues())

	w.Push(5)
	w.Push(6)
	assert.Equal(t, []float64{4, 5, 6}, w.ShortValues())
	assert.Equal(t, []float64{2, 3, 4, 5, 6}, w.LongValues())
}

func TestDefaultCapacitiesKeepLastN(t *testing.T) {
	w, err := New(DefaultShortCap, DefaultLongCap)
	require.NoError(t, err)

	for i := 1; i <= DefaultLongCap+1; i++ {
		w.Push(float64(i))
	}
	short, long := w.Len()
	assert.Equal(t, DefaultShortCap, short)
	assert.Equal(t, DefaultLongCap, long)
	assert.Equal(t, []float64{17, 18, 19, 20, 21}, w.ShortValues())
	assert.Equal(t, 2.0, w.LongValues()[0])
}

func TestValuesAreCopies(t *testing.T) {
	w, _ := New(2, 2)
	w.Push(1)
	vals := w.ShortValues()
	vals[0] = 99
	assert.Equal(t, []float64{1}, w.ShortValues())
}

func TestLevels(t *testing.T) {
	w, _ := New(5, 20)
	assert.False(t, w.Levels().Valid)

	for _, p := range []float64{3, 1, 4, 1, 5, 9} {
		w.Push(p)
	}
	lv := w.Levels()
	assert.True(t, lv.Valid)
	assert.Equal(t, 1.0, lv.Support)
	assert.Equal(t, 9.0, lv.Resistance)
}

func TestSnapshotCarriesCapacities(t *testing.T) {
	w, _ := New(5, 20)
	w.Push(10)
	snap := w.Snapshot(w.Levels())
	assert.Equal(t, 5, snap.ShortCap)
	assert.Equal(t, 20, snap.LongCap)
	latest, ok := snap.Latest()
	assert.True(t, ok)
	assert.Equal(t, 10.0, latest)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 3.0, Mean([]float64{1, 2, 3, 4, 5}))
}
