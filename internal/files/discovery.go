package files

import (
	"fmt"
	"os"
	"regexp"
	"sort"
)

// Location identifies one market location inside its export group.
type Location struct {
	Group string
	Name  string
}

var measuresNameRe = regexp.MustCompile(`^(.+)_measures_exportAct5_maxpMax(.+)_w7\.csv$`)

// DiscoverLocations scans the data directory for measures exports and returns
// the locations they belong to, sorted by group then name. The measures file
// is the anchor: property and shape exports are resolved per location on
// demand and may be absent.
func (s *Store) DiscoverLocations() ([]Location, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read data directory %s: %w", s.baseDir, err)
	}

	var locs []Location
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := measuresNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		locs = append(locs, Location{Group: m[1], Name: m[2]})
	}
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].Group != locs[j].Group {
			return locs[i].Group < locs[j].Group
		}
		return locs[i].Name < locs[j].Name
	})
	return locs, nil
}
