package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolbioinfo/gorecomb/engine"
)

func TestParseDriver(t *testing.T) {
	cases := []struct {
		name string
		want engine.Driver
	}{
		{"", engine.JointTreeDriver},
		{"joint-tree", engine.JointTreeDriver},
		{"fixed-branch", engine.FixedBranchDriver},
		{"rescale-branch", engine.RescaleBranchDriver},
	}
	for _, c := range cases {
		got, err := parseDriver(c.name)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestParseDriverRejectsUnknownName(t *testing.T) {
	_, err := parseDriver("bogus")
	assert.Error(t, err)
}

func TestDefaultTreeReaderRefuses(t *testing.T) {
	_, err := TreeReader("nonexistent.nwk")
	assert.Error(t, err)
}

func TestDefaultAlignmentReaderRefuses(t *testing.T) {
	_, err := AlignmentReader("nonexistent.fasta", nil)
	assert.Error(t, err)
}
