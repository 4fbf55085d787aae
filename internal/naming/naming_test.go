package naming

import (
	"testing"

	"javtidy/internal/record"
)

func rec(actors ...string) *record.Record {
	r := &record.Record{ID: "IPX-001", Title: "Sample: Movie?", Year: "2024", Studio: "IP"}
	for _, a := range actors {
		r.Actors = append(r.Actors, record.Actor{Name: a})
	}
	return r
}

func TestPlanBasic(t *testing.T) {
	l, err := New("$actor$/$id$", FirstOnly)
	if err != nil {
		t.Fatal(err)
	}
	p := l.Plan(rec("A", "B"))
	if p.Dir != "A" || p.Stem != "IPX-001" || len(p.Links) != 0 {
		t.Errorf("plan = %+v", p)
	}
	if got := p.Rel(".mp4"); got != "A/IPX-001.mp4" {
		t.Errorf("Rel = %q", got)
	}
}

func TestPlanMerge(t *testing.T) {
	l, err := New("$actor$/$id$", Merge)
	if err != nil {
		t.Fatal(err)
	}
	if p := l.Plan(rec("A", "B")); p.Dir != "A & B" {
		t.Errorf("Dir = %q", p.Dir)
	}
}

func TestPlanLinks(t *testing.T) {
	l, err := New("$actor$/$id$", Symlink)
	if err != nil {
		t.Fatal(err)
	}
	p := l.Plan(rec("A", "B", "C"))
	if p.Dir != "A" || len(p.Links) != 2 {
		t.Fatalf("plan = %+v", p)
	}
	if p.Links[0].Dir != "B" || p.Links[1].Dir != "C" {
		t.Errorf("links = %+v", p.Links)
	}
	if p.Links[0].Stem != "IPX-001" {
		t.Errorf("link stem = %q", p.Links[0].Stem)
	}
}

func TestPlanDuplicateActorCollapses(t *testing.T) {
	l, err := New("$studio$/$id$", Hardlink)
	if err != nil {
		t.Fatal(err)
	}
	// template ignores the actor, so alternates render identically
	if p := l.Plan(rec("A", "B")); len(p.Links) != 0 {
		t.Errorf("links = %+v, want none", p.Links)
	}
}

func TestPlanMissingAndIllegal(t *testing.T) {
	l, err := New("$series$/$title$", FirstOnly)
	if err != nil {
		t.Fatal(err)
	}
	p := l.Plan(rec())
	if p.Dir != "Unknown" {
		t.Errorf("Dir = %q, want Unknown", p.Dir)
	}
	if p.Stem != "Sample Movie" {
		t.Errorf("Stem = %q, want scrubbed title", p.Stem)
	}
}

func TestPlanNoSeparators(t *testing.T) {
	l, err := New("$id$", FirstOnly)
	if err != nil {
		t.Fatal(err)
	}
	p := l.Plan(rec("A"))
	if p.Dir != "." || p.Stem != "IPX-001" {
		t.Errorf("plan = %+v", p)
	}
	if got := p.Rel(".nfo"); got != "IPX-001.nfo" {
		t.Errorf("Rel = %q", got)
	}
}

func TestNewRejectsBadTemplates(t *testing.T) {
	if _, err := New("", FirstOnly); err == nil {
		t.Error("empty template accepted")
	}
	if _, err := New("$actor$/", FirstOnly); err == nil {
		t.Error("trailing separator accepted")
	}
}

func TestParseStrategy(t *testing.T) {
	for _, ok := range []string{"first_only", "merge", "symlink", "hardlink"} {
		if _, err := ParseStrategy(ok); err != nil {
			t.Errorf("ParseStrategy(%q): %v", ok, err)
		}
	}
	if _, err := ParseStrategy("clone"); err == nil {
		t.Error("ParseStrategy accepted junk")
	}
}
