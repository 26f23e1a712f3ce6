package observability

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc ,bad, x=1,=2 ")
	want := map[string]string{"api-key": "abc", "x": "1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty input should give nil")
	}
}

func TestClampRatio(t *testing.T) {
	for in, want := range map[float64]float64{0: 0.1, -1: 0.1, 0.5: 0.5, 3: 1} {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v)=%v want %v", in, got, want)
		}
	}
}
