package listing

import "testing"

func TestMarkerPosition(t *testing.T) {
	tests := []struct {
		i         int
		left, top int
	}{
		{0, 20, 15},
		{7, 90, 15},
		{8, 20, 27},
		{17, 30, 39},
		{47, 90, 75},
		{48, 20, 15},
	}
	for _, tt := range tests {
		left, top := MarkerPosition(tt.i)
		if left != tt.left || top != tt.top {
			t.Errorf("MarkerPosition(%d) = (%d, %d), want (%d, %d)", tt.i, left, top, tt.left, tt.top)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{450000, "$450,000"},
		{999.6, "$1,000"},
		{0, "$0"},
		{1250000, "$1,250,000"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.price); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.price, got, tt.want)
		}
	}
}

func TestMarkers(t *testing.T) {
	props := []Property{{ID: 4, Price: 100000}, {ID: 2, Price: 2500}}
	got := Markers(props, NewSavedSet([]SavedEntry{{PropertyID: 2}}))
	if len(got) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(got))
	}
	if got[1].PropertyID != 2 || got[1].Left != 30 || got[1].Label != "$2,500" || !got[1].Saved {
		t.Errorf("unexpected marker %+v", got[1])
	}
	if got[0].Saved {
		t.Error("marker 0 should not be saved")
	}
}
