// Command palette extracts and scores the palette of local image files.
//
// Usage:
//
//	palette [-quantizer mediancut|kmeans] [-k 10] [-threshold 30] [-json] profile.jpg [banner.jpg]
//
// Colors from every file are merged in argument order before scoring, the
// same way a profile image and its banner are combined.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/profilehue/profilehue-server/internal/harmony"
	"github.com/profilehue/profilehue-server/internal/media/images"
	"github.com/profilehue/profilehue-server/internal/palette"
)

type fileResult struct {
	Path     string           `json:"path"`
	Colors   []palette.Swatch `json:"colors"`
	Error    string           `json:"error,omitempty"`
	colorSet palette.Palette
}

type report struct {
	Files  []fileResult    `json:"files"`
	Merged []string        `json:"merged"`
	Text   string          `json:"text"`
	Score  *harmony.Result `json:"score,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func main() {
	quantizer := flag.String("quantizer", palette.QuantizerMedianCut, "Quantizer (mediancut, kmeans)")
	k := flag.Int("k", palette.DefaultK, "Colors requested from the quantizer")
	threshold := flag.Float64("threshold", palette.DefaultThreshold, "Minimum distance between kept colors")
	asJSON := flag.Bool("json", false, "Print JSON instead of text")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: palette [flags] <image> [image...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	q, err := palette.QuantizerByName(*quantizer)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ex := palette.NewExtractor(q)
	ex.K = *k
	ex.Threshold = *threshold

	r := analyze(ex, flag.Args())

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	} else {
		printText(r)
	}

	if r.Score == nil {
		os.Exit(1)
	}
}

func analyze(ex *palette.Extractor, paths []string) report {
	var r report
	palettes := make([]palette.Palette, 0, len(paths))

	for _, path := range paths {
		f := fileResult{Path: path}
		img, err := images.Open(path)
		if err != nil {
			f.Error = err.Error()
		} else {
			f.colorSet = ex.Extract(img)
			palettes = append(palettes, f.colorSet)
		}
		f.Colors = f.colorSet.Swatches()
		r.Files = append(r.Files, f)
	}

	merged := palette.Merge(palettes...)
	r.Merged = merged.Hex()
	r.Text = palette.JoinHex(merged)

	result, err := harmony.Score(merged)
	switch {
	case errors.Is(err, harmony.ErrTooFewColors):
		r.Error = fmt.Sprintf("only %d distinct colors found, need at least 2", len(merged))
	case err != nil:
		r.Error = err.Error()
	default:
		r.Score = &result
	}
	return r
}

func printText(r report) {
	for _, f := range r.Files {
		fmt.Printf("%s\n", f.Path)
		if f.Error != "" {
			fmt.Printf("  error: %s\n", f.Error)
			continue
		}
		for _, s := range f.Colors {
			fmt.Printf("  %s  L=%6.2f C=%6.2f H=%6.2f\n", s.Hex, s.Lightness, s.Chroma, s.Hue)
		}
	}

	fmt.Println()
	fmt.Printf("Merged (%d): %s\n", len(r.Merged), r.Text)
	if r.Score == nil {
		fmt.Printf("Score: n/a (%s)\n", r.Error)
		return
	}
	fmt.Printf("Average distance: %.2f\n", r.Score.AverageDistance)
	fmt.Printf("Count score:      %.2f\n", r.Score.CountScore)
	fmt.Printf("Distance score:   %.2f\n", r.Score.DistanceScore)
	fmt.Printf("Harmony score:    %.2f\n", r.Score.Score)
}
