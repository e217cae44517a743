package analysis

import (
	"math"
	"reflect"
	"testing"

	apperrors "position-engine/internal/errors"
)

func TestDetectCross(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		dir  Direction
		want []bool
	}{
		{
			name: "cross under on third row",
			a:    []float64{10, 11, 9, 8},
			b:    []float64{10, 10, 10, 10},
			dir:  CrossUnder,
			want: []bool{false, false, true, false},
		},
		{
			name: "cross over",
			a:    []float64{9, 11, 12},
			b:    []float64{10, 10, 10},
			dir:  CrossOver,
			want: []bool{false, true, false},
		},
		{
			name: "touching is not crossing",
			a:    []float64{11, 10, 9},
			b:    []float64{10, 10, 10},
			dir:  CrossUnder,
			want: []bool{false, false, false},
		},
		{
			name: "missing value never fires",
			a:    []float64{11, math.NaN(), 9},
			b:    []float64{10, 10, 10},
			dir:  CrossUnder,
			want: []bool{false, false, false},
		},
		{
			name: "single row",
			a:    []float64{1},
			b:    []float64{2},
			dir:  CrossOver,
			want: []bool{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectCross(tt.a, tt.b, tt.dir)
			if err != nil {
				t.Fatalf("DetectCross() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DetectCross() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectCross_LengthMismatch(t *testing.T) {
	_, err := DetectCross([]float64{1, 2}, []float64{1}, CrossUnder)
	if !apperrors.Is(err, apperrors.ErrInputValidation) {
		t.Errorf("expected ErrInputValidation, got %v", err)
	}
}

func TestCrossEvents(t *testing.T) {
	a := []float64{9, 11, 9, 11}
	b := []float64{10, 10, 10, 10}

	events, err := CrossEvents(a, b)
	if err != nil {
		t.Fatalf("CrossEvents() error = %v", err)
	}
	want := []CrossEvent{
		{Index: 1, Direction: CrossOver},
		{Index: 2, Direction: CrossUnder},
		{Index: 3, Direction: CrossOver},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("CrossEvents() = %v, want %v", events, want)
	}
}

func TestFindBands(t *testing.T) {
	tests := []struct {
		name   string
		flags  []bool
		minRun int
		want   []Band
	}{
		{
			name:   "exactly min run",
			flags:  []bool{false, true, true, true, false},
			minRun: 3,
			want:   []Band{{Start: 1, End: 3}},
		},
		{
			name:   "one short of min run",
			flags:  []bool{true, true, false, true},
			minRun: 3,
			want:   nil,
		},
		{
			name:   "band at end of sequence",
			flags:  []bool{false, true, true},
			minRun: 2,
			want:   []Band{{Start: 1, End: 2}},
		},
		{
			name:   "single day bands",
			flags:  []bool{true, false, true},
			minRun: 1,
			want:   []Band{{Start: 0, End: 0}, {Start: 2, End: 2}},
		},
		{
			name:   "zero min run behaves as one",
			flags:  []bool{true},
			minRun: 0,
			want:   []Band{{Start: 0, End: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindBands(tt.flags, tt.minRun)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindBands() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBandIndex(t *testing.T) {
	got := BandIndex(6, []Band{{Start: 1, End: 2}, {Start: 4, End: 5}})
	want := []int{-1, 0, 0, -1, 1, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BandIndex() = %v, want %v", got, want)
	}
}
