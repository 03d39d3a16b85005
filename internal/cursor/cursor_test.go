package cursor_test

import (
	"strconv"
	"testing"

	"github.com/xraph/storehook/internal/cursor"
)

func TestLimit(t *testing.T) {
	cases := []struct {
		requested, def, max, want int
	}{
		{0, 20, 100, 20},
		{-5, 20, 100, 20},
		{10, 20, 100, 10},
		{500, 20, 100, 100},
		{0, 0, 0, cursor.DefaultLimit},
	}
	for _, tc := range cases {
		if got := cursor.Limit(tc.requested, tc.def, tc.max); got != tc.want {
			t.Errorf("Limit(%d, %d, %d) = %d, want %d", tc.requested, tc.def, tc.max, got, tc.want)
		}
	}
}

func TestBuild(t *testing.T) {
	key := func(n int) string { return strconv.Itoa(n) }

	full := cursor.Build([]int{9, 8, 7, 6}, 3, key)
	if len(full.Items) != 3 || !full.HasMore || full.NextCursor != "7" {
		t.Fatalf("unexpected page %+v", full)
	}

	last := cursor.Build([]int{5, 4}, 3, key)
	if len(last.Items) != 2 || last.HasMore || last.NextCursor != "" {
		t.Fatalf("unexpected last page %+v", last)
	}

	empty := cursor.Build[int](nil, 3, key)
	if empty.Items == nil || len(empty.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %#v", empty.Items)
	}
}

func TestFetch(t *testing.T) {
	if cursor.Fetch(50) != 51 {
		t.Fatal("Fetch should request one extra row")
	}
}
