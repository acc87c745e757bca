// Package room persists listings. The in-memory store serves tests and
// database-less runs; the Postgres store uses PostGIS for radius search.
package room

import (
	"math"
	"slices"

	"rentmeroom/internal/blob"
	"rentmeroom/internal/listing/models"
)

const earthRadiusM = 6371008.8

func clone(r *models.Room) *models.Room {
	c := *r
	c.Features = slices.Clone(r.Features)
	c.Images = slices.Clone(r.Images)
	if r.Location != nil {
		loc := *r.Location
		c.Location = &loc
	}
	if r.Address.Ward != nil {
		ward := *r.Address.Ward
		c.Address.Ward = &ward
	}
	if c.Images == nil {
		c.Images = []blob.Image{}
	}
	return &c
}

// haversine is the great-circle distance in meters.
func haversine(a, b models.GeoPoint) float64 {
	const rad = math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLon := (b.Lon - a.Lon) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
