package content

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func TestGenerationCanEditTracksConversationHistory(t *testing.T) {
	cases := []struct {
		name    string
		history datatypes.JSON
		want    bool
	}{
		{name: "nil", history: nil, want: false},
		{name: "empty", history: datatypes.JSON(""), want: false},
		{name: "json null", history: datatypes.JSON("null"), want: false},
		{name: "object", history: datatypes.JSON(`{"turns":[]}`), want: true},
	}
	for _, tc := range cases {
		g := &Generation{ConversationHistory: tc.history}
		if got := g.CanEdit(); got != tc.want {
			t.Fatalf("%s: CanEdit want=%v got=%v", tc.name, tc.want, got)
		}
	}
	var nilGen *Generation
	if nilGen.CanEdit() {
		t.Fatalf("nil generation must not be editable")
	}
}

func TestGenerationIsRoot(t *testing.T) {
	parent := uuid.New()
	if !(&Generation{}).IsRoot() {
		t.Fatalf("generation without parent is a root")
	}
	if (&Generation{ParentGenerationID: &parent}).IsRoot() {
		t.Fatalf("generation with parent is not a root")
	}
}
