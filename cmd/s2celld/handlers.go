package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/golang/glog"

	"github.com/iwpnd/s2cell"
)

type latLngJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type cellInfo struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	Face      int        `json:"face"`
	Level     int        `json:"level"`
	Path      string     `json:"path"`
	Center    latLngJSON `json:"center"`
	Parent    string     `json:"parent,omitempty"`
	Children  []string   `json:"children,omitempty"`
	Neighbors []string   `json:"neighbors"`
	AreaM2    float64    `json:"area_m2"`
	Area      string     `json:"area"`
}

type coverResponse struct {
	Cells    int                 `json:"cells"`
	Tokens   []string            `json:"tokens"`
	Cached   bool                `json:"cached"`
	Options  s2cell.CoverOptions `json:"options"`
	Interior bool                `json:"interior"`
}

type containsResponse struct {
	Contains bool   `json:"contains"`
	Cell     string `json:"cell"`
	Etag     string `json:"etag"`
}

func badRequest(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

func queryFloat(c *fiber.Ctx, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, fmt.Errorf("missing query parameter %q", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %q: %w", key, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("query parameter %q must be finite, got %s", key, raw)
	}
	return v, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %q: %w", key, err)
	}
	return v, nil
}

func queryLatLng(c *fiber.Ctx) (s2cell.LatLng, error) {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		return s2cell.LatLng{}, err
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		return s2cell.LatLng{}, err
	}
	ll := s2cell.LatLngFromDegrees(lat, lng)
	if !ll.IsValid() {
		return ll, fmt.Errorf("coordinates %v out of range", ll)
	}
	return ll, nil
}

// GET /v1/cells?lat=&lng=&level=
func (s *server) handleCellAt(c *fiber.Ctx) error {
	ll, err := queryLatLng(c)
	if err != nil {
		return badRequest(err)
	}
	level, err := queryInt(c, "level", s2cell.MaxLevel)
	if err != nil {
		return badRequest(err)
	}
	leaf, err := s2cell.CellIDFromLatLng(ll)
	if err != nil {
		return badRequest(err)
	}
	id, err := leaf.Parent(level)
	if err != nil {
		return badRequest(err)
	}
	info, err := describeCell(id)
	if err != nil {
		return badRequest(err)
	}
	return c.JSON(info)
}

// GET /v1/cells/:token
func (s *server) handleCell(c *fiber.Ctx) error {
	id, err := s2cell.CellIDFromToken(c.Params("token"))
	if err != nil {
		return badRequest(err)
	}
	info, err := describeCell(id)
	if err != nil {
		return badRequest(err)
	}
	return c.JSON(info)
}

func describeCell(id s2cell.CellID) (cellInfo, error) {
	cell, err := s2cell.CellFromCellID(id)
	if err != nil {
		return cellInfo{}, err
	}
	center, err := id.LatLng()
	if err != nil {
		return cellInfo{}, err
	}
	neighbors, err := id.EdgeNeighbors()
	if err != nil {
		return cellInfo{}, err
	}
	area := s2cell.EarthArea(cell.ApproxArea())

	info := cellInfo{
		ID:     strconv.FormatUint(uint64(id), 10),
		Token:  id.ToToken(),
		Face:   id.Face(),
		Level:  id.Level(),
		Path:   id.String(),
		Center: latLngJSON{Lat: center.Lat.Degrees(), Lng: center.Lng.Degrees()},
		AreaM2: area,
		Area:   humanize.FormatFloat("#,###.##", area) + " m²",
	}
	for _, n := range neighbors {
		info.Neighbors = append(info.Neighbors, n.ToToken())
	}
	if !id.IsFace() {
		p, err := id.ImmediateParent()
		if err != nil {
			return cellInfo{}, err
		}
		info.Parent = p.ToToken()
	}
	if !id.IsLeaf() {
		children, err := id.Children()
		if err != nil {
			return cellInfo{}, err
		}
		for _, ch := range children {
			info.Children = append(info.Children, ch.ToToken())
		}
	}
	return info, nil
}

// GET /v1/cover?lat=&lng=&radius=&max_cells=&min_level=&max_level=&level_mod=&interior=&format=
func (s *server) handleCover(c *fiber.Ctx) error {
	ll, err := queryLatLng(c)
	if err != nil {
		return badRequest(err)
	}
	radius, err := queryFloat(c, "radius")
	if err != nil {
		return badRequest(err)
	}
	if radius < 0 {
		return badRequest(fmt.Errorf("radius %g must not be negative", radius))
	}

	opts := s2cell.DefaultCoverOptions()
	for _, q := range []struct {
		key string
		dst *int
	}{
		{"max_cells", &opts.MaxCells},
		{"min_level", &opts.MinLevel},
		{"max_level", &opts.MaxLevel},
		{"level_mod", &opts.LevelMod},
	} {
		if *q.dst, err = queryInt(c, q.key, *q.dst); err != nil {
			return badRequest(err)
		}
	}
	if opts.MaxCells > s.maxCellsLimit {
		return badRequest(fmt.Errorf("max_cells %d exceeds the limit of %d", opts.MaxCells, s.maxCellsLimit))
	}
	interior := c.QueryBool("interior", false)

	region := s2cell.CapFromCenterMeters(ll, radius)
	cover := s.coverer.Covering
	kind := "exterior"
	if interior {
		cover = s.coverer.InteriorCovering
		kind = "interior"
	}
	cu, cached, err := cover(opts, region)
	if err != nil {
		if errors.Is(err, s2cell.ErrInvalidOptions) {
			return badRequest(err)
		}
		return err
	}
	s.metrics.observeCovering(kind, len(cu), cached)
	glog.V(2).Infof("Covered %v r=%gm with %d cells (cached=%t)", ll, radius, len(cu), cached)

	switch format := c.Query("format", "json"); format {
	case "json":
		return c.JSON(coverResponse{
			Cells:    len(cu),
			Tokens:   cu.Tokens(),
			Cached:   cached,
			Options:  opts,
			Interior: interior,
		})
	case "geojson":
		b, err := coveringGeoJSON(cu)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(b)
	default:
		return badRequest(fmt.Errorf("unknown format %q", format))
	}
}

// GET /v1/union/contains?lat=&lng=
func (s *server) handleUnionContains(c *fiber.Ctx) error {
	if s.union == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no union loaded")
	}
	ll, err := queryLatLng(c)
	if err != nil {
		return badRequest(err)
	}
	id, err := s2cell.CellIDFromLatLng(ll)
	if err != nil {
		return badRequest(err)
	}
	contains := s.union.ContainsCellID(id)
	s.metrics.observeUnionLookup(contains)
	c.Set(fiber.HeaderETag, s.union.Etag())
	return c.JSON(containsResponse{Contains: contains, Cell: id.ToToken(), Etag: s.union.Etag()})
}
