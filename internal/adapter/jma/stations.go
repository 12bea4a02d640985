package jma

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Station identifies a JMA observation station by its prefecture and block
// numbers, the pair the upstream daily pages are addressed with.
type Station struct {
	PrecNo  int `yaml:"prec_no"`
	BlockNo int `yaml:"block_no"`
}

// LocationCode renders the composite code stored with every observation.
func (s Station) LocationCode() string {
	return fmt.Sprintf("%d-%d", s.PrecNo, s.BlockNo)
}

// defaultStations are the built-in major-city entries. The directory is
// configuration data: extend it with a YAML file, not code changes.
var defaultStations = map[string]Station{
	"東京":  {PrecNo: 44, BlockNo: 47662},
	"大阪":  {PrecNo: 62, BlockNo: 47772},
	"名古屋": {PrecNo: 51, BlockNo: 47636},
	"札幌":  {PrecNo: 14, BlockNo: 47412},
	"福岡":  {PrecNo: 82, BlockNo: 47807},
}

// StationDirectory maps location names to station codes.
type StationDirectory struct {
	stations map[string]Station
}

// DefaultDirectory returns a directory holding the built-in stations.
func DefaultDirectory() *StationDirectory {
	stations := make(map[string]Station, len(defaultStations))
	for name, st := range defaultStations {
		stations[name] = st
	}
	return &StationDirectory{stations: stations}
}

// stationsFile is the YAML shape of a directory extension file.
type stationsFile struct {
	Stations map[string]Station `yaml:"stations"`
}

// LoadDirectory returns the built-in directory extended with entries from a
// YAML file. File entries win on name collision.
func LoadDirectory(path string) (*StationDirectory, error) {
	dir := DefaultDirectory()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations file: %w", err)
	}

	var f stationsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse stations file: %w", err)
	}

	for name, st := range f.Stations {
		if name == "" || st.PrecNo == 0 || st.BlockNo == 0 {
			return nil, fmt.Errorf("stations file: invalid entry %q (prec_no=%d, block_no=%d)", name, st.PrecNo, st.BlockNo)
		}
		dir.stations[name] = st
	}

	return dir, nil
}

// Lookup resolves a location name to its station codes.
func (d *StationDirectory) Lookup(name string) (Station, bool) {
	st, ok := d.stations[name]
	return st, ok
}

// Names returns all known location names, sorted.
func (d *StationDirectory) Names() []string {
	names := make([]string, 0, len(d.stations))
	for name := range d.stations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
