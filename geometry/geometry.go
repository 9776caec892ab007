// Package geometry provides named device-size and I/O-unit presets so the
// CLI doesn't require spelling out raw byte counts.
package geometry

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// Profile describes one named device geometry: its total size and the I/O
// unit size its block driver accepts. B (the logical block size the engine
// actually addresses in) is always 2*IOUnitSize.
type Profile struct {
	Slug        string `csv:"slug"`
	Description string `csv:"description"`
	// TotalIOUnits is the device size expressed in I/O units, not bytes.
	TotalIOUnits uint `csv:"total_io_units"`
	IOUnitSize   uint `csv:"io_unit_size"`
}

// TotalSizeBytes is the minimum image file size this profile requires.
func (p Profile) TotalSizeBytes() int64 {
	return int64(p.TotalIOUnits) * int64(p.IOUnitSize)
}

//go:embed profiles.csv
var profilesRawCSV string

var profiles map[string]Profile

// Get looks up a named profile.
func Get(slug string) (Profile, error) {
	profile, ok := profiles[slug]
	if ok {
		return profile, nil
	}
	return Profile{}, fmt.Errorf("no predefined device profile exists with slug %q", slug)
}

// Names returns every known profile slug, for help text.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	return names
}

func init() {
	profiles = make(map[string]Profile)
	reader := strings.NewReader(profilesRawCSV)
	err := gocsv.UnmarshalToCallback(
		reader,
		func(row Profile) error {
			if _, exists := profiles[row.Slug]; exists {
				return fmt.Errorf("duplicate definition for device profile %q", row.Slug)
			}
			profiles[row.Slug] = row
			return nil
		},
	)
	if err != nil && err != io.EOF {
		panic(err)
	}
}
