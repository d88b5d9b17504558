package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteCSV writes the round-by-round convergence log, the final shape row,
// and the per-bucket rehash-count histogram, in that order, per
// SPEC_FULL.md §3.2's CSV contract.
func WriteCSV(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"lookup_round", "false_positives", "fp_rate"}); err != nil {
		return err
	}
	for _, rnd := range res.Rounds {
		if err := cw.Write([]string{
			fmt.Sprintf("%d", rnd.Round),
			fmt.Sprintf("%d", rnd.FalsePositives),
			fmt.Sprintf("%.6f", rnd.FPRate),
		}); err != nil {
			return err
		}
	}

	if err := cw.Write([]string{"slot_per_bucket", "bucket_count", "capacity", "load_factor"}); err != nil {
		return err
	}
	if err := cw.Write([]string{
		fmt.Sprintf("%d", res.SlotPerBucket),
		fmt.Sprintf("%d", res.BucketCount),
		fmt.Sprintf("%d", res.Capacity),
		fmt.Sprintf("%.4f", res.LoadFactor),
	}); err != nil {
		return err
	}

	if err := cw.Write([]string{"rehashes_per_bucket", "count"}); err != nil {
		return err
	}
	seeds := make([]uint16, 0, len(res.SeedHistogram))
	for s := range res.SeedHistogram {
		seeds = append(seeds, s)
	}
	sort.Slice(seeds, func(i, j int) bool { return seeds[i] < seeds[j] })
	for _, s := range seeds {
		if err := cw.Write([]string{fmt.Sprintf("%d", s), fmt.Sprintf("%d", res.SeedHistogram[s])}); err != nil {
			return err
		}
	}
	return nil
}

// WriteConvergenceChart renders a false-positive-rate-per-round line chart
// to outputDir/convergence-<run id>.html.
func WriteConvergenceChart(outputDir string, res *Result) (string, error) {
	labels := make([]string, len(res.Rounds))
	data := make([]opts.LineData, len(res.Rounds))
	for i, rnd := range res.Rounds {
		labels[i] = fmt.Sprintf("%d", rnd.Round)
		data[i] = opts.LineData{Value: rnd.FPRate}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Adaptive Cuckoo Filter Pair convergence", Subtitle: res.RunID}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Lookup round"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "False positive rate"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("fp_rate", data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	path := filepath.Join(outputDir, fmt.Sprintf("convergence-%s.html", res.RunID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		return "", fmt.Errorf("render convergence chart: %w", err)
	}
	return path, nil
}

// SummaryTable renders a terminal-friendly table of the run's final shape,
// color-highlighting whether the pair converged.
func SummaryTable(res *Result) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"run id", "rounds", "bucket count", "capacity", "load factor", "rehashes", "filter size", "converged"})

	converged := color.New(color.FgGreen).Sprint("yes")
	if !res.Converged {
		converged = color.New(color.FgRed).Sprint("no")
	}

	tbl.AppendRow(table.Row{
		res.RunID,
		len(res.Rounds),
		res.BucketCount,
		res.Capacity,
		fmt.Sprintf("%.4f", res.LoadFactor),
		res.NumRehashes,
		humanize.Bytes(filterSizeBytes(res)),
		converged,
	})
	return tbl.Render()
}

// filterSizeBytes computes the packed filter's footprint from its bucket
// count and fingerprint width, mirroring packedtable.go's bytesPerBucket
// calculation.
func filterSizeBytes(res *Result) uint64 {
	bitsPerTag := res.BitsPerFingerprint
	if bitsPerTag == 0 {
		bitsPerTag = 12
	}
	bytesPerBucket := (uint64(bitsPerTag)*uint64(res.SlotPerBucket) + 7) / 8
	return res.BucketCount * bytesPerBucket
}
