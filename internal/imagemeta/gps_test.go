package imagemeta

import (
	"math"
	"testing"
)

func TestToDecimal_KnownCoordinates(t *testing.T) {
	if got := ToDecimal([3]float64{51, 30, 26.46}, "N"); math.Abs(got-51.5074) > 0.001 {
		t.Errorf("ToDecimal(london lat) = %v, want ~51.5074", got)
	}
	if got := ToDecimal([3]float64{0, 7, 40.08}, "W"); math.Abs(got-(-0.1278)) > 0.001 {
		t.Errorf("ToDecimal(london lon) = %v, want ~-0.1278", got)
	}
}

func TestToDecimal_HemisphereSymmetry(t *testing.T) {
	triplets := [][3]float64{
		{0, 0, 0},
		{51, 30, 26.46},
		{0, 7, 40.08},
		{179, 59, 59.99},
		{33, 51, 54.5},
	}
	for _, dms := range triplets {
		north := ToDecimal(dms, "N")
		if north < 0 {
			t.Errorf("ToDecimal(%v, N) = %v, want >= 0", dms, north)
		}
		if south := ToDecimal(dms, "S"); south != -north {
			t.Errorf("ToDecimal(%v, S) = %v, want %v", dms, south, -north)
		}
		east := ToDecimal(dms, "E")
		if east != north {
			t.Errorf("ToDecimal(%v, E) = %v, want %v", dms, east, north)
		}
		if west := ToDecimal(dms, "W"); west != -east {
			t.Errorf("ToDecimal(%v, W) = %v, want %v", dms, west, -east)
		}
	}
}

func TestToDecimal_UnknownReferenceIsPositive(t *testing.T) {
	for _, ref := range []string{"", "n", "X", "south"} {
		if got := ToDecimal([3]float64{10, 30, 0}, ref); got != 10.5 {
			t.Errorf("ToDecimal(ref=%q) = %v, want 10.5", ref, got)
		}
	}
}
