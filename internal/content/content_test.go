package content

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// TestLoadPopulatesAllTables proves Load reads items/horses/courses
// keyed by their respective id fields.
func TestLoadPopulatesAllTables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.yaml", `
items:
  - tid: 1
    name: Apple
    stackable: true
    max_count: 99
`)
	writeFile(t, dir, "horses.yaml", `
horses:
  - tid: 10
    name: Midnight
    breed: thoroughbred
    base_speed: 50
    base_agility: 40
`)
	writeFile(t, dir, "courses.yaml", `
courses:
  - map_id: 100
    name: Sunny Meadow
    max_players: 8
    lap_count: 3
`)

	reg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	item, ok := reg.Item(1)
	if !ok || item.Name != "Apple" || !item.Stackable || item.MaxCount != 99 {
		t.Fatalf("Item(1) = %+v, ok=%v, want Apple/stackable/99", item, ok)
	}

	horse, ok := reg.Horse(10)
	if !ok || horse.Name != "Midnight" || horse.BaseSpeed != 50 {
		t.Fatalf("Horse(10) = %+v, ok=%v", horse, ok)
	}

	course, ok := reg.Course(100)
	if !ok || course.Name != "Sunny Meadow" || course.LapCount != 3 {
		t.Fatalf("Course(100) = %+v, ok=%v", course, ok)
	}
}

// TestLoadMissingFilesIsNotAnError proves an absent table file leaves
// that table empty rather than failing Load, since not every
// deployment carries every content kind from day one.
func TestLoadMissingFilesIsNotAnError(t *testing.T) {
	reg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load with no files: %v", err)
	}
	if _, ok := reg.Item(1); ok {
		t.Fatalf("Item(1) found in an empty registry")
	}
}

// TestLoadMalformedYAMLFails proves a present but invalid file is
// reported as an error rather than silently ignored.
func TestLoadMalformedYAMLFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.yaml", "items: [this is not a valid item list")

	if _, err := Load(dir); err == nil {
		t.Fatalf("Load with malformed YAML returned nil error")
	}
}

// TestUnknownLookupsReportNotFound proves looking up an id absent from
// a populated registry reports ok=false rather than a zero-value
// false positive.
func TestUnknownLookupsReportNotFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.yaml", `
items:
  - tid: 1
    name: Apple
`)
	reg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := reg.Item(999); ok {
		t.Fatalf("Item(999) ok = true, want false")
	}
	if _, ok := reg.Horse(1); ok {
		t.Fatalf("Horse(1) ok = true, want false")
	}
}
