// Tests for ordering, paging and projection.

package records

import "testing"

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"numbers", 1.0, 2, -1},
		{"equal numbers", int64(3), 3.0, 0},
		{"strings", "2024-02-01", "2024-01-01", 1},
		{"nil first", nil, 0.0, -1},
		{"bools", false, true, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestApply_StableAndPure(t *testing.T) {
	rows := []Record{
		{"Id": 1.0, "price": 5.0},
		{"Id": 2.0, "price": 1.0},
		{"Id": 3.0, "price": 5.0},
	}
	got := Apply(rows, Query{OrderBy: []Order{{Field: "price", Type: Desc}}})
	want := []int64{1, 3, 2}
	for i, id := range want {
		if got[i].ID() != id {
			t.Errorf("position %d: id %d, want %d", i, got[i].ID(), id)
		}
	}
	if rows[1].ID() != 2 {
		t.Error("input was reordered")
	}
}

func TestPage(t *testing.T) {
	rows := make([]Record, 150)
	for i := range rows {
		rows[i] = Record{"Id": float64(i + 1)}
	}
	if got := len(Page(rows, Paging{})); got != DefaultLimit {
		t.Errorf("default page = %d, want %d", got, DefaultLimit)
	}
	if got := Page(rows, Paging{Offset: 200}); got != nil {
		t.Errorf("page past end = %v", got)
	}
	if got := len(Page(rows, Paging{Limit: 100, Offset: 120})); got != 30 {
		t.Errorf("tail page = %d, want 30", got)
	}
}
