package bench

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	return &Result{
		RunID:         "test-run",
		SlotPerBucket: 4,
		BucketCount:   16,
		Capacity:      64,
		LoadFactor:    0.9,
		NumRehashes:   3,
		Converged:     true,
		SeedHistogram: map[uint16]int{0: 10, 1: 4, 2: 2},
		Rounds: []RoundStat{
			{Round: 0, FalsePositives: 5, FPRate: 0.05, Rewrites: 8},
			{Round: 1, FalsePositives: 0, FPRate: 0, Rewrites: 0},
		},
	}
}

func TestWriteCSVShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "lookup_round,false_positives,fp_rate")
	assert.Contains(t, out, "slot_per_bucket,bucket_count,capacity,load_factor")
	assert.Contains(t, out, "rehashes_per_bucket,count")
	assert.Contains(t, out, "0,5,0.050000")
}

func TestSummaryTableRendersConvergedRun(t *testing.T) {
	out := SummaryTable(sampleResult())
	assert.True(t, strings.Contains(out, "test-run"))
}

func TestFilterSizeBytesIsPositive(t *testing.T) {
	assert.Greater(t, filterSizeBytes(sampleResult()), uint64(0))
}
