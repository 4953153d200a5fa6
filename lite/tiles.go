package lite

import (
	"fmt"
	"math"

	"ubilite/models"
)

// Per-quality tile budgets for an offline region download.
var tileCaps = map[string]int{
	models.IMAGE_QUALITY_LOW:    20,
	models.IMAGE_QUALITY_MEDIUM: 50,
	models.IMAGE_QUALITY_HIGH:   100,
}

// BoundingBox is a lat/lng rectangle (south-west to north-east).
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Tile is one slippy-map tile coordinate.
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// TilePlan is the download plan for an offline region.
type TilePlan struct {
	Quality   string `json:"quality"`
	Zoom      int    `json:"zoom"`
	Tiles     []Tile `json:"tiles"`
	Truncated bool   `json:"truncated"` // cap hit; region partially covered
}

// tileXY is standard slippy-map math.
func tileXY(lat, lng float64, zoom int) (int, int) {
	n := math.Exp2(float64(zoom))
	x := int(math.Floor((lng + 180.0) / 360.0 * n))
	latRad := lat * math.Pi / 180.0
	y := int(math.Floor((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n))
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	max := int(n) - 1
	if x > max {
		x = max
	}
	if y > max {
		y = max
	}
	return x, y
}

// PlanTiles maps a region to the tiles a client should prefetch. Quality is
// forced low on 2G-class networks regardless of what was asked for.
func PlanTiles(box BoundingBox, zoom int, quality, networkType string) (*TilePlan, error) {
	if zoom < 1 || zoom > 19 {
		return nil, fmt.Errorf("plan tiles: zoom %d out of range", zoom)
	}
	if box.MinLat > box.MaxLat || box.MinLng > box.MaxLng {
		return nil, fmt.Errorf("plan tiles: inverted bounding box")
	}

	if SlowNetwork(networkType) {
		quality = models.IMAGE_QUALITY_LOW
	}
	budget, ok := tileCaps[quality]
	if !ok {
		quality = models.IMAGE_QUALITY_MEDIUM
		budget = tileCaps[quality]
	}

	minX, maxY := tileXY(box.MinLat, box.MinLng, zoom)
	maxX, minY := tileXY(box.MaxLat, box.MaxLng, zoom)

	plan := &TilePlan{Quality: quality, Zoom: zoom}
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if len(plan.Tiles) >= budget {
				plan.Truncated = true
				return plan, nil
			}
			plan.Tiles = append(plan.Tiles, Tile{X: x, Y: y, Z: zoom})
		}
	}
	return plan, nil
}
