package bench

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunConverges(t *testing.T) {
	cfg := &Config{
		N:                  100,
		BitsPerFingerprint: 12,
		MaxLoadFactor:      0.95,
		MaxKicks:           500,
		HashFamily:         "xxhash",
		Seed:               1,
		MaxRounds:          150,
	}
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	result, err := Run(context.Background(), cfg, nil, logger)
	require.NoError(t, err)
	assert.True(t, result.Converged, "expected the benchmark run to converge within 150 rounds")
	assert.NotEmpty(t, result.Rounds)
	assert.NotEmpty(t, result.RunID)

	// false positive counts never increase round over round.
	prev := -1
	for _, r := range result.Rounds {
		if prev >= 0 {
			assert.LessOrEqual(t, r.FalsePositives, prev)
		}
		prev = r.FalsePositives
	}
}

func TestRunRecordsMetrics(t *testing.T) {
	cfg := &Config{
		N:                  50,
		BitsPerFingerprint: 12,
		MaxLoadFactor:      0.95,
		MaxKicks:           500,
		HashFamily:         "xxhash",
		Seed:               2,
		MaxRounds:          150,
	}
	logger := slog.New(slog.NewTextHandler(bytesDiscard{}, nil))
	metrics := NewMetrics()

	result, err := Run(context.Background(), cfg, metrics, logger)
	require.NoError(t, err)

	assert.Equal(t, float64(len(result.Rounds)), testutil.ToFloat64(metrics.RoundsTotal))
}

type bytesDiscard struct{}

func (bytesDiscard) Write(p []byte) (int, error) { return len(p), nil }
