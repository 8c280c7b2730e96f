package naver

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/ttokjang/backend/internal/domain"
)

// Korea bounding box
const (
	minLat = 33.0
	maxLat = 39.5
	minLng = 124.0
	maxLng = 132.0
)

// Integer-scaled (x 10^7) WGS84 coordinate ranges used by the current API
const (
	coordScale    = 10_000_000.0
	minScaledMapX = 1_240_000_000
	maxScaledMapX = 1_320_000_000
	minScaledMapY = 330_000_000
	maxScaledMapY = 390_000_000
)

var tagStripper = strings.NewReplacer("<b>", "", "</b>", "")

// parsePlaces extracts items[] from a local search response
func parsePlaces(body []byte) []domain.Place {
	items := gjson.GetBytes(body, "items").Array()
	places := make([]domain.Place, 0, len(items))
	for _, item := range items {
		places = append(places, domain.Place{
			Title:       tagStripper.Replace(item.Get("title").String()),
			Address:     item.Get("address").String(),
			RoadAddress: item.Get("roadAddress").String(),
			MapX:        item.Get("mapx").String(),
			MapY:        item.Get("mapy").String(),
		})
	}
	return places
}

// ParseCoordinates converts mapx/mapy into lat/lng. Both plain degrees and
// the x10^7 integer form are accepted; anything outside Korea is rejected.
func ParseCoordinates(mapx, mapy string) (lat, lng float64, ok bool) {
	x, errX := strconv.ParseFloat(strings.TrimSpace(mapx), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(mapy), 64)
	if errX != nil || errY != nil {
		return 0, 0, false
	}

	switch {
	case x >= -180 && x <= 180 && y >= -90 && y <= 90:
		lng, lat = x, y
	case x >= minScaledMapX && x <= maxScaledMapX && y >= minScaledMapY && y <= maxScaledMapY:
		lng, lat = x/coordScale, y/coordScale
	default:
		return 0, 0, false
	}

	if lat < minLat || lat > maxLat || lng < minLng || lng > maxLng {
		return 0, 0, false
	}
	return lat, lng, true
}

// DisplayAddress prefers the road address, then the lot address, then fallback
func DisplayAddress(p domain.Place, fallback string) string {
	if p.RoadAddress != "" {
		return p.RoadAddress
	}
	if p.Address != "" {
		return p.Address
	}
	return fallback
}
