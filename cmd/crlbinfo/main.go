// Command crlbinfo prints Cramér–Rao lower bounds for a synthetic reference
// star observed at a chosen signal-to-noise ratio.
//
// Usage:
//
//	crlbinfo [flags]
//
// The built-in reference star carries Gaussian absorption features with a
// distinct wavelength and depth per label, so the printed bounds show how
// precision scales with SNR, cutoff, and chunking without any external data
// files.
//
// Examples:
//
//	crlbinfo
//	crlbinfo -snr 250 -cutoff 0.2
//	crlbinfo -chunk 500 -sort default
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-crlb/crlb"
	"github.com/cwbudde/algo-crlb/fisher"
	"github.com/cwbudde/algo-crlb/gradient"
	"github.com/cwbudde/algo-crlb/label"
)

// feature places one synthetic absorption line per label: a Gaussian dip at
// center (pixel units) with the given depth sensitivity.
type feature struct {
	name   string
	center float64
	depth  float64
	width  float64
}

var features = []feature{
	{label.Teff, 120, 0.60, 12},
	{label.Logg, 260, 0.25, 10},
	{label.RV, 400, 0.40, 8},
	{"Fe", 540, 0.35, 6},
	{"Mg", 680, 0.20, 6},
	{"Si", 820, 0.12, 6},
	{"Ca", 960, 0.08, 6},
	{"Ti", 1100, 0.03, 6},
}

const instrumentName = "synthetic"

func main() {
	snr := flag.Float64("snr", 100, "per-pixel signal-to-noise ratio")
	pixels := flag.Int("pixels", 1200, "number of wavelength pixels")
	cutoff := flag.Float64("cutoff", 0.5, "drop abundance labels with bounds above this precision")
	chunk := flag.Int("chunk", fisher.DefaultChunkSize, "pixel chunk size for Fisher accumulation (<= 0 disables)")
	sortBy := flag.String("sort", crlb.DefaultSort, "column to sort the ranked table by")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: crlbinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints CRLB precision bounds for a synthetic reference star.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*snr, *pixels, *cutoff, *chunk, *sortBy); err != nil {
		fmt.Fprintf(os.Stderr, "crlbinfo: %v\n", err)
		os.Exit(1)
	}
}

func run(snr float64, pixels int, cutoff float64, chunk int, sortBy string) error {
	ref, err := syntheticReference(pixels)
	if err != nil {
		return err
	}

	snrVec := make([]float64, pixels)
	for i := range snrVec {
		snrVec[i] = snr
	}

	columnName := fmt.Sprintf("SNR=%g", snr)
	table, _, err := crlb.Calculate(ref,
		[]fisher.Observation{{Name: instrumentName, SNR: snrVec}},
		nil, columnName, fisher.WithChunkSize(chunk))
	if err != nil {
		return err
	}

	ranked, err := crlb.Rank(table, cutoff, sortBy)
	if err != nil {
		return err
	}

	return printTable(ranked, columnName, cutoff)
}

// syntheticReference builds a reference star whose gradient rows are
// Gaussian profiles, one feature per label.
func syntheticReference(pixels int) (*fisher.Reference, error) {
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.name
	}

	labels, err := label.NewSet(names)
	if err != nil {
		return nil, err
	}

	grad, err := gradient.New(labels, pixels)
	if err != nil {
		return nil, err
	}
	row := make([]float64, pixels)
	for _, f := range features {
		for p := range row {
			d := (float64(p) - f.center) / f.width
			row[p] = f.depth * math.Exp(-0.5*d*d)
		}
		if err := grad.SetRow(f.name, row); err != nil {
			return nil, err
		}
	}

	ref, err := fisher.NewReference(labels)
	if err != nil {
		return nil, err
	}
	if err := ref.SetGradients(instrumentName, grad); err != nil {
		return nil, err
	}
	return ref, nil
}

func printTable(t *crlb.Table, columnName string, cutoff float64) error {
	values, err := t.Column(columnName)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Label\t%s\t\n", columnName)
	for i, name := range t.Labels() {
		switch {
		case math.IsNaN(values[i]):
			fmt.Fprintf(w, "%s\t> %g\t\n", name, cutoff)
		default:
			fmt.Fprintf(w, "%s\t%.4f\t\n", name, values[i])
		}
	}
	return w.Flush()
}
