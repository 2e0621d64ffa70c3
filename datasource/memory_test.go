package datasource

import "testing"

func TestMemoryLength(t *testing.T) {
	m := NewMemory([]string{"a", "b", "c"}, 80)
	if m.Length() != 3 {
		t.Fatalf("got %d want 3", m.Length())
	}
}

func TestMemoryMakeRowRendersRunes(t *testing.T) {
	m := NewMemory([]string{"hello"}, 80)
	rc := m.MakeRow(0)
	if rc.Height() != 1 {
		t.Fatalf("expected single-line content, got height %d", rc.Height())
	}
	line := rc.Lines[0]
	if len(line) != len("hello") {
		t.Fatalf("expected %d cells, got %d", len("hello"), len(line))
	}
	for i, r := range "hello" {
		if line[i].Ch != r {
			t.Fatalf("cell %d: got %q want %q", i, line[i].Ch, r)
		}
	}
}

func TestMemoryMakeDummyRowIsBlankAtRequestedHeight(t *testing.T) {
	m := NewMemory([]string{"hello"}, 10)
	rc := m.MakeDummyRow(0, 3, m.Style)
	if rc.Height() != 3 {
		t.Fatalf("got height %d want 3", rc.Height())
	}
	for _, line := range rc.Lines {
		if len(line) != 10 {
			t.Fatalf("expected width 10, got %d", len(line))
		}
		for _, c := range line {
			if c.Ch != ' ' {
				t.Fatalf("expected blank dummy row, found %q", c.Ch)
			}
		}
	}
}
