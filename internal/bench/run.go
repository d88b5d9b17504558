package bench

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/mwong775/acuckoo"
)

// RoundStat is one lookup sweep's outcome, the unit SPEC_FULL.md §3.2's CSV
// report rows and convergence chart are built from.
type RoundStat struct {
	Round          int
	FalsePositives int
	FPRate         float64
	Rewrites       int
	DirtyBuckets   int
}

// Result is a complete benchmark run: the pair's final shape plus every
// round's convergence statistics, identified by a fresh run id so repeated
// runs never collide in a shared output directory.
type Result struct {
	RunID              string
	Rounds             []RoundStat
	SlotPerBucket      int
	BitsPerFingerprint int
	BucketCount        uint64
	Capacity           uint64
	LoadFactor         float64
	NumRehashes        uint64
	Converged          bool
	SeedHistogram      map[uint16]int
}

// Run drives a FilterPair through SPEC_FULL.md's benchmark protocol: insert
// a capacity-sized key set R, then repeatedly sweep a much larger disjoint
// set S, rehashing dirty buckets between sweeps, until either the sweep
// reports zero false positives or cfg.MaxRounds is exhausted. Metrics are
// updated at the end of every round when m is non-nil.
func Run(ctx context.Context, cfg *Config, m *Metrics, log *slog.Logger) (*Result, error) {
	pair, err := acuckoo.NewFilterPair(cfg.FilterPairConfig())
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log.Info("starting run", "run_id", runID, "n", cfg.N, "max_rounds", cfg.MaxRounds)

	r := rand.New(rand.NewSource(int64(cfg.Seed)))
	rSet := make([]acuckoo.Key, 0, cfg.N)
	for uint64(len(rSet)) < cfg.N {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		k := acuckoo.Key(r.Uint64())
		if pair.Insert(k) == acuckoo.InsertOk {
			rSet = append(rSet, k)
		} else {
			log.Warn("run stopped early: table full before R was fully loaded", "loaded", len(rSet))
			break
		}
	}

	sSet := make([]acuckoo.Key, cfg.N*100)
	for i := range sSet {
		sSet[i] = acuckoo.Key(r.Uint64())
	}

	result := &Result{RunID: runID, SlotPerBucket: acuckoo.SlotsPerBucket, BitsPerFingerprint: cfg.BitsPerFingerprint}
	for round := 0; round < cfg.MaxRounds; round++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pair.StartLookup()
		fp := 0
		for _, k := range sSet {
			status, _, _ := pair.Lookup(k)
			if status == acuckoo.LookupFalsePositive {
				fp++
			}
		}
		rewrites := pair.RehashBuckets()

		stat := RoundStat{
			Round:          round,
			FalsePositives: fp,
			FPRate:         float64(fp) / float64(len(sSet)),
			Rewrites:       rewrites,
			DirtyBuckets:   pair.DirtyCount(),
		}
		result.Rounds = append(result.Rounds, stat)
		log.Info("round complete", "round", round, "false_positives", fp, "rewrites", rewrites)

		if m != nil {
			m.RoundsTotal.Inc()
			m.FalsePositivesTotal.Add(float64(fp))
			m.RewritesTotal.Add(float64(rewrites))
			m.DirtyBuckets.Set(float64(stat.DirtyBuckets))
		}

		if pair.State() == acuckoo.StateConverged {
			result.Converged = true
			break
		}
		if pair.State() == acuckoo.StateFull {
			log.Warn("run terminated: table entered the Full state")
			break
		}
	}

	result.BucketCount = pair.Capacity() / acuckoo.SlotsPerBucket
	result.Capacity = pair.Capacity()
	result.LoadFactor = pair.LoadFactor()
	result.NumRehashes = pair.NumRehashes()
	result.SeedHistogram = seedHistogram(pair.Seeds())

	return result, nil
}

func seedHistogram(seeds []uint16) map[uint16]int {
	h := make(map[uint16]int)
	for _, s := range seeds {
		h[s]++
	}
	return h
}
