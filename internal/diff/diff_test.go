package diff

import (
	"reflect"
	"testing"
	"time"
)

type gadget struct {
	Model   string
	Asset   string
	Bought  time.Time
	Owner   *uint
	Picture string
	Status  string
}

var gadgetFields = []Field[gadget]{
	String("model", "Type", func(g *gadget) *string { return &g.Model }),
	String("asset", "Asset Number", func(g *gadget) *string { return &g.Asset }),
	Date("bought", "Purchase Date", func(g *gadget) *time.Time { return &g.Bought }),
	OptionalID("owner", "Device ID", func(g *gadget) **uint { return &g.Owner }),
	Attachment("picture", "Slip Picture", func(g *gadget) *string { return &g.Picture }),
	String("status", "Status", func(g *gadget) *string { return &g.Status }),
}

func uintPtr(v uint) *uint { return &v }

func TestDiff_identicalSnapshots(t *testing.T) {
	g := gadget{Model: "Latitude 5420", Asset: "A-100", Status: "Available", Owner: uintPtr(3)}
	same := g
	same.Owner = uintPtr(3)
	if got := Diff(&g, &same, gadgetFields); len(got) != 0 {
		t.Fatalf("expected no changes, got %v", got)
	}
}

func TestDiff_statusChange(t *testing.T) {
	old := gadget{Model: "Latitude 5420", Asset: "A-100", Status: "Available"}
	next := gadget{Model: "Latitude 5420", Asset: "A-100", Status: "In Repair"}

	got := Diff(&old, &next, gadgetFields)
	want := []string{"Status changed from Available to In Repair"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Diff() = %v, want %v", got, want)
	}
	if old.Status != "Available" {
		t.Fatal("Diff must not mutate the old snapshot")
	}
}

func TestApply_fieldOrderAndCopy(t *testing.T) {
	working := gadget{Model: "X1", Asset: "A-1", Status: "Available"}
	next := gadget{Model: "X2", Asset: "A-2", Status: "In Use", Owner: uintPtr(7)}

	got := Apply(&working, &next, gadgetFields)
	want := []string{
		"Type changed from X1 to X2",
		"Asset Number changed from A-1 to A-2",
		"Device ID changed from (empty) to 7",
		"Status changed from Available to In Use",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Apply() = %v, want %v", got, want)
	}
	if working.Model != "X2" || working.Asset != "A-2" || working.Status != "In Use" {
		t.Fatalf("working copy not updated: %+v", working)
	}
	if working.Owner == nil || *working.Owner != 7 {
		t.Fatalf("owner not copied: %v", working.Owner)
	}
	*next.Owner = 9
	if *working.Owner != 7 {
		t.Fatal("optional id must be copied by value")
	}
}

func TestDiff_dateComparesByValue(t *testing.T) {
	loc := time.FixedZone("EDT", -4*3600)
	old := gadget{Bought: time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)}
	sameDay := gadget{Bought: time.Date(2023, 3, 15, 13, 30, 0, 0, loc)}
	if got := Diff(&old, &sameDay, gadgetFields); len(got) != 0 {
		t.Fatalf("same calendar day should not differ, got %v", got)
	}

	later := gadget{Bought: time.Date(2023, 3, 16, 0, 0, 0, 0, time.UTC)}
	want := []string{"Purchase Date changed from 2023-03-15 to 2023-03-16"}
	if got := Diff(&old, &later, gadgetFields); !reflect.DeepEqual(got, want) {
		t.Fatalf("Diff() = %v, want %v", got, want)
	}
}

func TestApply_attachmentRule(t *testing.T) {
	tests := []struct {
		name        string
		stored      string
		submitted   string
		wantStored  string
		wantChanges []string
	}{
		{"upload replaces", "slips/a.png", "slips/b.png", "slips/b.png",
			[]string{"Slip Picture changed from slips/a.png to slips/b.png"}},
		{"first upload", "", "slips/b.png", "slips/b.png",
			[]string{"Slip Picture changed from (empty) to slips/b.png"}},
		{"no upload keeps stored", "slips/a.png", "", "slips/a.png", nil},
		{"no upload and nothing stored", "", "", "", nil},
		{"same upload name", "slips/a.png", "slips/a.png", "slips/a.png", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			working := gadget{Picture: tt.stored}
			submitted := gadget{Picture: tt.submitted}
			got := Apply(&working, &submitted, gadgetFields)
			if !reflect.DeepEqual(got, tt.wantChanges) {
				t.Fatalf("changes = %v, want %v", got, tt.wantChanges)
			}
			if working.Picture != tt.wantStored {
				t.Fatalf("stored = %q, want %q", working.Picture, tt.wantStored)
			}
		})
	}
}

func TestDiff_oneDescriptionPerDifferingField(t *testing.T) {
	base := gadget{Model: "m", Asset: "a", Status: "s"}
	mutators := []func(*gadget){
		func(g *gadget) { g.Model = "m2" },
		func(g *gadget) { g.Asset = "a2" },
		func(g *gadget) { g.Bought = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) },
		func(g *gadget) { g.Owner = uintPtr(1) },
		func(g *gadget) { g.Status = "s2" },
	}
	// every subset of mutations yields exactly that many descriptions
	for mask := 0; mask < 1<<len(mutators); mask++ {
		next := base
		n := 0
		for i, m := range mutators {
			if mask&(1<<i) != 0 {
				m(&next)
				n++
			}
		}
		if got := Diff(&base, &next, gadgetFields); len(got) != n {
			t.Fatalf("mask %b: got %d changes (%v), want %d", mask, len(got), got, n)
		}
	}
}
