package main

import (
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/iwpnd/s2cell"
)

// cellPolygon returns the cell as a closed lng/lat ring with straight edges
// between its four vertices.
func cellPolygon(id s2cell.CellID) (*geom.Polygon, error) {
	cell, err := s2cell.CellFromCellID(id)
	if err != nil {
		return nil, err
	}
	ring := make([]geom.Coord, 0, 5)
	for k := range 4 {
		ll := s2cell.LatLngFromPoint(cell.Vertex(k))
		ring = append(ring, geom.Coord{ll.Lng.Degrees(), ll.Lat.Degrees()})
	}
	ring = append(ring, ring[0])
	return geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{ring})
}

func coveringGeoJSON(cu s2cell.CellUnion) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(cu))}
	for _, id := range cu {
		poly, err := cellPolygon(id)
		if err != nil {
			return nil, errors.Wrapf(err, "cell %s", id)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       id.ToToken(),
			Geometry: poly,
			Properties: map[string]any{
				"level": id.Level(),
				"face":  id.Face(),
			},
		})
	}
	return fc.MarshalJSON()
}
