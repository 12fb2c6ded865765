package domain

import "testing"

func TestNewItemIDIsStable(t *testing.T) {
	a := NewItem("string 1")
	b := NewItem("string 1")
	c := NewItem("string 2")

	if a.ID != b.ID {
		t.Fatalf("expected equal ids for equal values")
	}
	if a.ID == c.ID {
		t.Fatalf("expected different ids for different values")
	}
	if len(a.ID) != 40 {
		t.Fatalf("expected hex sha1 id, got %q", a.ID)
	}
}

func TestNewItemsPreservesOrder(t *testing.T) {
	items := NewItems([]string{"b", "a", "b"})
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Value != "b" || items[1].Value != "a" || items[2].ID != items[0].ID {
		t.Fatalf("unexpected items %+v", items)
	}
}
