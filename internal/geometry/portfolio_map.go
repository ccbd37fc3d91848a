package geometry

import (
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"dealdesk/server/internal/models"
)

const (
	KindProperty   = "property"
	KindMarketArea = "market_area"
)

// PortfolioMap renders geocoded properties as GeoJSON point features, plus
// one convex hull polygon per city holding at least three of them.
// bestROI maps property id to its best analyzed scenario ROI.
func PortfolioMap(properties []models.Property, bestROI map[uint]float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	byCity := map[string][]orb.Point{}
	var all orb.MultiPoint

	for i := range properties {
		p := &properties[i]
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}
		point := orb.Point{*p.Longitude, *p.Latitude}
		all = append(all, point)

		feature := geojson.NewFeature(point)
		feature.ID = p.ID
		feature.Properties = geojson.Properties{
			"kind":           KindProperty,
			"id":             p.ID,
			"address":        p.Address(),
			"type":           p.Type,
			"status":         p.Status,
			"purchase_price": p.PurchasePrice,
			"current_value":  p.CurrentValue,
		}
		if roi, ok := bestROI[p.ID]; ok {
			feature.Properties["best_roi"] = roi
		}
		fc.Append(feature)

		city := strings.ToLower(strings.TrimSpace(p.City))
		if city != "" {
			byCity[city] = append(byCity[city], point)
		}
	}

	cities := make([]string, 0, len(byCity))
	for city := range byCity {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	for _, city := range cities {
		hull := ConvexHull(byCity[city])
		if hull == nil {
			continue
		}
		feature := geojson.NewFeature(orb.Polygon{hull})
		feature.Properties = geojson.Properties{
			"kind":           KindMarketArea,
			"city":           city,
			"property_count": len(byCity[city]),
		}
		fc.Append(feature)
	}

	if len(all) > 0 {
		fc.BBox = geojson.NewBBox(all.Bound())
	}
	return fc
}

// ConvexHull returns the closed counter-clockwise hull of the points, or nil
// when they do not span an area.
func ConvexHull(points []orb.Point) orb.Ring {
	if len(points) < 3 {
		return nil
	}

	sorted := make([]orb.Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	// Andrew's monotone chain
	hull := make([]orb.Point, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// The last point repeats the first, closing the ring
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
