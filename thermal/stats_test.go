package thermal

import (
	"errors"
	"math"
	"testing"
)

func TestSummarizeConstantMatrix(t *testing.T) {
	tm := NewTempImage(4, 3)
	for i := range tm.Pix {
		tm.Pix[i] = 300.15
	}

	stats, err := Summarize(tm)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if stats.Min != 300.15 || stats.Max != 300.15 || stats.Mean != 300.15 || stats.Median != 300.15 {
		t.Errorf("constant matrix stats = %+v, want all 300.15", stats)
	}
	if stats.StdDev != 0 {
		t.Errorf("StdDev = %v, want 0", stats.StdDev)
	}
}

func TestSummarizeKnownValues(t *testing.T) {
	tm := NewTempImage(2, 2)
	tm.Pix = []float64{280, 290, 300, 310}

	stats, err := Summarize(tm)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if stats.Min != 280 || stats.Max != 310 {
		t.Errorf("min/max = %v/%v, want 280/310", stats.Min, stats.Max)
	}
	if stats.Mean != 295 {
		t.Errorf("Mean = %v, want 295", stats.Mean)
	}
	// Even element count: the median averages the two middle values.
	if stats.Median != 295 {
		t.Errorf("Median = %v, want 295", stats.Median)
	}
	// Population standard deviation, not sample.
	want := math.Sqrt((900 + 100 + 100 + 900) / 4.0)
	if math.Abs(stats.StdDev-want) > 1e-12 {
		t.Errorf("StdDev = %v, want %v", stats.StdDev, want)
	}
}

func TestSummarizeOddCountMedian(t *testing.T) {
	tm := NewTempImage(3, 1)
	tm.Pix = []float64{310, 280, 290}

	stats, err := Summarize(tm)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if stats.Median != 290 {
		t.Errorf("Median = %v, want 290", stats.Median)
	}
}

func TestSummarizeEmptyMatrix(t *testing.T) {
	if _, err := Summarize(NewTempImage(0, 0)); !errors.Is(err, ErrEmptyMatrix) {
		t.Errorf("Summarize(empty): %v, want ErrEmptyMatrix", err)
	}
	if _, err := Summarize(nil); !errors.Is(err, ErrEmptyMatrix) {
		t.Errorf("Summarize(nil): %v, want ErrEmptyMatrix", err)
	}
}
