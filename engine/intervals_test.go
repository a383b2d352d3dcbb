package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evolbioinfo/gorecomb/recomb"
)

func TestImportedIntervals(t *testing.T) {
	U, I := recomb.Unimported, recomb.Imported
	cases := []struct {
		states []recomb.ImportationState
		want   []Interval
	}{
		{nil, nil},
		{[]recomb.ImportationState{U, U, U}, nil},
		{[]recomb.ImportationState{I, I, I}, []Interval{{0, 2}}},
		{[]recomb.ImportationState{U, I, I, U, I}, []Interval{{1, 2}, {4, 4}}},
	}
	for _, c := range cases {
		got := ImportedIntervals(c.states)
		assert.Equal(t, c.want, got, "ImportedIntervals(%v)", c.states)
	}
}
