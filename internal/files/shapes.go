package files

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/s2"

	"maicli/internal/activity"
	"maicli/internal/spatial"
)

// Columns of the shapes export. Geometry comes through as a GeoJSON blob in
// the ".geo" column; the attribute names carry the shapefile's 10-character
// truncation.
const (
	colShapeWeekday = "weekdayShp"
	colShapeStrict  = "strictness"
	colShapeSub     = "subStrictn"
	colGeo          = ".geo"
)

type geoJSONGeometry struct {
	Type        string            `json:"type"`
	Coordinates [][][2]float64    `json:"coordinates"`
	Geometries  []geoJSONGeometry `json:"geometries"`
}

// LoadAreaShapes loads the detection ring polygons for a location. Rows with
// unparseable or empty geometry are skipped; the shapes are reporting output,
// not pipeline input, so a partial set is usable.
func (s *Store) LoadAreaShapes(locGroup, loc string) ([]spatial.AreaShape, error) {
	path := s.join(fmt.Sprintf("%s_shapes_shp_MpM6_%s%s.csv", locGroup, locGroup, loc))
	if !fileExists(path) {
		return nil, nil
	}
	rows, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load area shapes: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	cols := headerIndex(rows[0])
	var shapes []spatial.AreaShape
	for _, row := range rows[1:] {
		ring, ok := parseRing(stringCell(row, cols, colGeo))
		if !ok {
			continue
		}
		shapes = append(shapes, spatial.AreaShape{
			Weekday:       intCell(row, cols, colShapeWeekday, -1),
			Strictness:    intCell(row, cols, colShapeStrict, 0),
			SubStrictness: intCell(row, cols, colShapeSub, activity.FullRingSub),
			Ring:          ring,
		})
	}
	return shapes, nil
}

func parseRing(raw string) ([]s2.LatLng, bool) {
	if raw == "" {
		return nil, false
	}
	var geom geoJSONGeometry
	if err := json.Unmarshal([]byte(raw), &geom); err != nil {
		return nil, false
	}
	if geom.Type == "GeometryCollection" {
		for _, g := range geom.Geometries {
			if ring, ok := ringFromPolygon(g); ok {
				return ring, true
			}
		}
		return nil, false
	}
	return ringFromPolygon(geom)
}

func ringFromPolygon(geom geoJSONGeometry) ([]s2.LatLng, bool) {
	if geom.Type != "Polygon" || len(geom.Coordinates) == 0 {
		return nil, false
	}
	outer := geom.Coordinates[0]
	if len(outer) < 3 {
		return nil, false
	}
	// GeoJSON rings repeat the first vertex at the end; s2 loops do not.
	if outer[0] == outer[len(outer)-1] {
		outer = outer[:len(outer)-1]
	}
	ring := make([]s2.LatLng, 0, len(outer))
	for _, c := range outer {
		ring = append(ring, s2.LatLngFromDegrees(c[1], c[0]))
	}
	return ring, true
}
