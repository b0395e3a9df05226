package resolve

import (
	"testing"

	"github.com/franz/music-catalog/internal/catalog"
)

func guardFixture() *catalog.Catalog {
	return seedCatalog([]*catalog.Collection{
		{ID: "a1", Title: "Spring"},
		{ID: "a2", Title: "Winter"},
	}, []*catalog.Track{
		// "Intro" exists in two unrelated collections
		{ID: "t1", CollectionID: "a1", Title: "Intro"},
		{ID: "t2", CollectionID: "a2", Title: "Intro"},
		// "Unique Song" exists once
		{ID: "t3", CollectionID: "a1", Title: "Unique Song"},
	})
}

func TestGuardIsAmbiguous(t *testing.T) {
	g := NewGuard(guardFixture())

	tests := []struct {
		key       string
		ambiguous bool
	}{
		{"intro", true},
		{"unique song", false},
		{"never seen", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := g.IsAmbiguous(tt.key); got != tt.ambiguous {
			t.Errorf("IsAmbiguous(%q) = %v, expected %v", tt.key, got, tt.ambiguous)
		}
	}
}

func TestGuardFindByTitle(t *testing.T) {
	g := NewGuard(guardFixture())

	if got := g.FindByTitle("unique song"); got == nil || got.ID != "t3" {
		t.Errorf("FindByTitle(unique song) = %+v, expected t3", got)
	}
	if got := g.FindByTitle("intro"); got != nil {
		t.Errorf("ambiguous key must resolve to nil, got %s", got.ID)
	}
	if got := g.FindByTitle(""); got != nil {
		t.Errorf("empty key must resolve to nil, got %s", got.ID)
	}
}

func TestGuardCompositeTakesPrecedence(t *testing.T) {
	g := NewGuard(guardFixture())

	// Bare "intro" is ambiguous, but scoped to its collection it is not
	got := g.FindByComposite("spring", "intro")
	if got == nil || got.ID != "t1" {
		t.Fatalf("FindByComposite(spring, intro) = %+v, expected t1", got)
	}
	got = g.FindByComposite("winter", "intro")
	if got == nil || got.ID != "t2" {
		t.Fatalf("FindByComposite(winter, intro) = %+v, expected t2", got)
	}
	if got := g.FindByComposite("", "intro"); got != nil {
		t.Errorf("empty collection key must resolve to nil, got %s", got.ID)
	}
}

func TestGuardTitleCount(t *testing.T) {
	g := NewGuard(guardFixture())
	if n := g.TitleCount("intro"); n != 2 {
		t.Errorf("TitleCount(intro) = %d, expected 2", n)
	}
	if n := g.TitleCount("unique song"); n != 1 {
		t.Errorf("TitleCount(unique song) = %d, expected 1", n)
	}
}
