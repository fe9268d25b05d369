package quality

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseGrade(t *testing.T) {
	tests := []struct {
		in      string
		want    Grade
		wantErr bool
	}{
		{"excellent", Excellent, false},
		{"Good", Good, false},
		{"  QUESTIONABLE ", Questionable, false},
		{"poor", Poor, false},
		{"unknown", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGrade(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQualityGrade) {
					t.Fatalf("expected ErrInvalidQualityGrade, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseGrade(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	expected := map[Grade]float64{Excellent: 1.0, Good: 0.8, Questionable: 0.5, Poor: 0.3}

	for g, want := range expected {
		got, err := w.WeightOf(g)
		if err != nil {
			t.Fatalf("WeightOf(%s): %v", g, err)
		}
		if got != want {
			t.Errorf("WeightOf(%s) = %g, want %g", g, got, want)
		}
	}
}

func TestWeightOf_InvalidGrade(t *testing.T) {
	_, err := DefaultWeights().WeightOf(Grade(9))
	if !errors.Is(err, ErrInvalidQualityGrade) {
		t.Errorf("expected ErrInvalidQualityGrade, got %v", err)
	}
}

func TestWeightOf_ZeroValueTable(t *testing.T) {
	var w Weights
	if _, err := w.WeightOf(Good); err == nil {
		t.Error("expected error for uninitialised table")
	}
}

func TestNewWeights(t *testing.T) {
	tests := []struct {
		name    string
		in      map[string]float64
		wantErr bool
	}{
		{
			name: "valid override",
			in:   map[string]float64{"excellent": 1, "good": 0.9, "questionable": 0.4, "poor": 0.1},
		},
		{
			name:    "missing grade",
			in:      map[string]float64{"excellent": 1, "good": 0.9, "poor": 0.1},
			wantErr: true,
		},
		{
			name:    "unknown grade",
			in:      map[string]float64{"excellent": 1, "good": 0.9, "questionable": 0.4, "bad": 0.1},
			wantErr: true,
		},
		{
			name:    "zero weight",
			in:      map[string]float64{"excellent": 1, "good": 0.9, "questionable": 0.4, "poor": 0},
			wantErr: true,
		},
		{
			name:    "weight above one",
			in:      map[string]float64{"excellent": 1.2, "good": 0.9, "questionable": 0.4, "poor": 0.1},
			wantErr: true,
		},
		{
			name:    "not strictly decreasing",
			in:      map[string]float64{"excellent": 1, "good": 0.5, "questionable": 0.5, "poor": 0.1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWeights(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWeights() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				got, _ := w.WeightOf(Questionable)
				if got != tt.in["questionable"] {
					t.Errorf("questionable weight = %g, want %g", got, tt.in["questionable"])
				}
			}
		})
	}
}

func TestAtLeast(t *testing.T) {
	got := AtLeast(Good)
	if len(got) != 2 || got[0] != Excellent || got[1] != Good {
		t.Errorf("AtLeast(Good) = %v", got)
	}
	if len(AtLeast(Poor)) != 4 {
		t.Error("AtLeast(Poor) should include every grade")
	}
	if AtLeast(Grade(-1)) != nil {
		t.Error("AtLeast(invalid) should be nil")
	}
}

func TestGrade_JSONMapKey(t *testing.T) {
	in := map[Grade]float64{Good: 0.25, Poor: 0.75}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"good":0.25,"poor":0.75}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var out map[Grade]float64
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out[Poor] != 0.75 {
		t.Errorf("round-tripped poor = %g", out[Poor])
	}
}
