package tagging

import (
	"math"
	"slices"
	"testing"
)

func TestOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want int
	}{
		{"both empty", nil, nil, 0},
		{"a empty", nil, []string{"io"}, 0},
		{"disjoint", []string{"x"}, []string{"y"}, 0},
		{"one shared", []string{"io", "net"}, []string{"net", "disk"}, 1},
		{"identical", []string{"a", "b", "c"}, []string{"c", "b", "a"}, 3},
		{"duplicates counted once", []string{"a", "a", "b"}, []string{"a", "a"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlap(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlap(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want float64
	}{
		{"both empty", nil, nil, 0.0},
		{"a empty", nil, []string{"go"}, 0.0},
		{"identical", []string{"go", "testing"}, []string{"go", "testing"}, 1.0},
		{"disjoint", []string{"go"}, []string{"python"}, 0.0},
		{"partial overlap", []string{"go", "testing", "git"}, []string{"go", "testing", "linting"}, 0.5},
		{"single shared", []string{"go", "git"}, []string{"go", "python"}, 1.0 / 3.0},
		{"duplicates ignored", []string{"go", "go"}, []string{"go"}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JaccardSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("JaccardSimilarity(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIntersectTags(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want []string
	}{
		{"both empty", nil, nil, nil},
		{"no overlap", []string{"go"}, []string{"python"}, nil},
		{"partial overlap preserves a order", []string{"testing", "go", "git"}, []string{"go", "testing"}, []string{"testing", "go"}},
		{"duplicates collapsed", []string{"go", "go"}, []string{"go"}, []string{"go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IntersectTags(tt.a, tt.b)
			if !slices.Equal(got, tt.want) {
				t.Errorf("IntersectTags(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{"b,a", []string{"a", "b"}},
		{" net , io ,,net", []string{"io", "net"}},
	}

	for _, tt := range tests {
		if got := ParseList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("ParseList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
