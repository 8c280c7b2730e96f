package naver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ttokjang/backend/internal/domain"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		mapx    string
		mapy    string
		wantLat float64
		wantLng float64
		wantOK  bool
	}{
		{name: "degrees", mapx: "127.0276", mapy: "37.4979", wantLat: 37.4979, wantLng: 127.0276, wantOK: true},
		{name: "scaled integers", mapx: "1270276078", mapy: "374979308", wantLat: 37.4979308, wantLng: 127.0276078, wantOK: true},
		{name: "padded", mapx: " 127.5 ", mapy: " 36.5", wantLat: 36.5, wantLng: 127.5, wantOK: true},
		{name: "degrees outside korea", mapx: "139.69", mapy: "35.68"},
		{name: "scaled outside range", mapx: "1400000000", mapy: "374979308"},
		{name: "katec-like values", mapx: "314167", mapy: "544505"},
		{name: "not numbers", mapx: "abc", mapy: "37.5"},
		{name: "empty", mapx: "", mapy: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lng, ok := ParseCoordinates(tt.mapx, tt.mapy)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.wantLat, lat, 1e-9)
				assert.InDelta(t, tt.wantLng, lng, 1e-9)
			}
		})
	}
}

func TestDisplayAddress(t *testing.T) {
	assert.Equal(t, "road", DisplayAddress(domain.Place{RoadAddress: "road", Address: "lot"}, "q"))
	assert.Equal(t, "lot", DisplayAddress(domain.Place{Address: "lot"}, "q"))
	assert.Equal(t, "q", DisplayAddress(domain.Place{}, "q"))
}

func TestParsePlaces(t *testing.T) {
	places := parsePlaces([]byte(gangnamResponse))
	assert.Len(t, places, 2)
	assert.Empty(t, parsePlaces([]byte(`{}`)))
}
