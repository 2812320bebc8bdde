// Package content loads the static item/horse/course registries the
// directors consult for Tid lookups (spec.md §2's "static content
// registry" collaborator, named concretely in SPEC_FULL.md §2).
// Grounded on the teacher's internal/data.LoadItemTable: flat YAML
// list files, one Load function per table, merged into a map keyed by
// the content ID the wire protocol already carries as a Tid/MapID.
package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemTemplate is a static inventory item definition (spec.md §6
// "items" kind's Tid lookup).
type ItemTemplate struct {
	Tid       uint32 `yaml:"tid"`
	Name      string `yaml:"name"`
	Stackable bool   `yaml:"stackable"`
	MaxCount  uint32 `yaml:"max_count"`
}

// HorseTemplate is a static horse breed/appearance definition.
type HorseTemplate struct {
	Tid      uint32 `yaml:"tid"`
	Name     string `yaml:"name"`
	Breed    string `yaml:"breed"`
	BaseSpeed uint32 `yaml:"base_speed"`
	BaseAgility uint32 `yaml:"base_agility"`
}

// CourseTemplate is a static race course/map definition.
type CourseTemplate struct {
	MapID       uint32 `yaml:"map_id"`
	Name        string `yaml:"name"`
	MaxPlayers  uint8  `yaml:"max_players"`
	LapCount    uint8  `yaml:"lap_count"`
}

type itemListFile struct {
	Items []ItemTemplate `yaml:"items"`
}

type horseListFile struct {
	Horses []HorseTemplate `yaml:"horses"`
}

type courseListFile struct {
	Courses []CourseTemplate `yaml:"courses"`
}

// Registry is the in-memory, read-only set of static content tables,
// loaded once at startup (spec.md §9: content is immutable at runtime).
type Registry struct {
	items   map[uint32]ItemTemplate
	horses  map[uint32]HorseTemplate
	courses map[uint32]CourseTemplate
}

// Load reads items.yaml, horses.yaml, and courses.yaml from dir.
func Load(dir string) (*Registry, error) {
	reg := &Registry{
		items:   make(map[uint32]ItemTemplate),
		horses:  make(map[uint32]HorseTemplate),
		courses: make(map[uint32]CourseTemplate),
	}

	if err := loadYAML(dir+"/items.yaml", &itemListFile{}, func(f *itemListFile) {
		for _, it := range f.Items {
			reg.items[it.Tid] = it
		}
	}); err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	if err := loadYAML(dir+"/horses.yaml", &horseListFile{}, func(f *horseListFile) {
		for _, h := range f.Horses {
			reg.horses[h.Tid] = h
		}
	}); err != nil {
		return nil, fmt.Errorf("load horses: %w", err)
	}

	if err := loadYAML(dir+"/courses.yaml", &courseListFile{}, func(f *courseListFile) {
		for _, c := range f.Courses {
			reg.courses[c.MapID] = c
		}
	}); err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}

	return reg, nil
}

func loadYAML[T any](path string, into *T, apply func(*T)) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(raw, into); err != nil {
		return err
	}
	apply(into)
	return nil
}

// Item returns an item template by Tid, and whether it exists.
func (r *Registry) Item(tid uint32) (ItemTemplate, bool) {
	t, ok := r.items[tid]
	return t, ok
}

// Horse returns a horse template by Tid, and whether it exists.
func (r *Registry) Horse(tid uint32) (HorseTemplate, bool) {
	t, ok := r.horses[tid]
	return t, ok
}

// Course returns a course template by MapID, and whether it exists.
func (r *Registry) Course(mapID uint32) (CourseTemplate, bool) {
	t, ok := r.courses[mapID]
	return t, ok
}
