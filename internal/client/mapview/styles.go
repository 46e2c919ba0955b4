package mapview

import (
	common_models "litterbugs/internal/common/models"
)

// MarkerStyle is what the map widget needs to draw a pin.
type MarkerStyle struct {
	Color string
	Icon  string
}

var (
	lowStyle     = MarkerStyle{Color: "#43A047", Icon: "trash-outline"}
	highStyle    = MarkerStyle{Color: "#E53935", Icon: "warning-outline"}
	defaultStyle = MarkerStyle{Color: "#FF8A00", Icon: "trash-outline"}
)

// StyleFor maps severity to pin styling. Medium, unset and unknown values
// share the default style.
func StyleFor(severity *common_models.Severity) MarkerStyle {
	if severity == nil {
		return defaultStyle
	}
	s, _ := common_models.ParseSeverity(string(*severity))
	switch s {
	case common_models.SeverityLow:
		return lowStyle
	case common_models.SeverityHigh:
		return highStyle
	default:
		return defaultStyle
	}
}

type MapType string

const (
	MapStandard  MapType = "standard"
	MapSatellite MapType = "satellite"
	MapHybrid    MapType = "hybrid"
	MapTerrain   MapType = "terrain"
)

var mapTypeColors = map[MapType]string{
	MapStandard:  "#B39DDB",
	MapSatellite: "#A5D6A7",
	MapHybrid:    "#FBC02D",
	MapTerrain:   "#66BB6A",
}

// Color is the tint of the map type toggle button.
func (t MapType) Color() string {
	return mapTypeColors[t]
}

// next skips terrain when the platform cannot render it.
func (t MapType) next(terrain bool) MapType {
	switch t {
	case MapStandard:
		return MapSatellite
	case MapSatellite:
		return MapHybrid
	case MapHybrid:
		if terrain {
			return MapTerrain
		}
		return MapStandard
	default:
		return MapStandard
	}
}

// Region is the visible map window.
type Region struct {
	Latitude       float64
	Longitude      float64
	LatitudeDelta  float64
	LongitudeDelta float64
}

var FallbackRegion = Region{
	Latitude:       35.6009,
	Longitude:      -82.5540,
	LatitudeDelta:  0.08,
	LongitudeDelta: 0.08,
}

const locatedDelta = 0.02

func regionAround(c common_models.Coordinate) Region {
	return Region{
		Latitude:       c.Latitude,
		Longitude:      c.Longitude,
		LatitudeDelta:  locatedDelta,
		LongitudeDelta: locatedDelta,
	}
}
