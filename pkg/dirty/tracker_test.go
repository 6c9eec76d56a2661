package dirty_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/dirty"
)

func TestTracker_MarkIsIdempotent(t *testing.T) {
	t.Parallel()

	tr := dirty.New()
	a := cell.MustParseAddress("C3")

	for range 10 {
		tr.Mark(a)
	}

	assert.Equal(t, 1, tr.Len())
	assert.True(t, tr.IsDirty(a))

	drained := tr.Drain()
	assert.Equal(t, map[cell.Address]struct{}{a: {}}, drained)
	assert.Equal(t, 0, tr.Len())
	assert.False(t, tr.IsDirty(a))
	assert.Empty(t, tr.Drain())
}

func TestTracker_MarkRange(t *testing.T) {
	t.Parallel()

	tr := dirty.New()
	tr.MarkRange(cell.MustParseRange("A1:B3"))
	tr.MarkRange(cell.MustParseRange("B3:C3"))

	assert.Equal(t, 7, tr.Len())
	assert.True(t, tr.IsDirty(cell.MustParseAddress("A2")))
	assert.True(t, tr.IsDirty(cell.MustParseAddress("C3")))
	assert.False(t, tr.IsDirty(cell.MustParseAddress("C1")))

	tr.Clear(cell.MustParseAddress("A2"))
	tr.Clear(cell.MustParseAddress("Z9"))
	assert.False(t, tr.IsDirty(cell.MustParseAddress("A2")))
	assert.Equal(t, 6, tr.Len())
}
