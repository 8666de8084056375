package generator

import (
	"encoding/json"
	"math"
	"strconv"

	"geoquiz-service/internal/domain"
)

// Accepted field aliases, kept in one place so the parsing policy is a
// single reviewable unit. Order matters: the first present alias wins.
var (
	nameKeys        = []string{"name", "Name"}
	latKeys         = []string{"latitude", "Latitude", "lat"}
	lngKeys         = []string{"longitude", "Longitude", "lng", "lon"}
	explanationKeys = []string{"description", "Description", "explanation", "Explanation"}
	coordsKeys      = []string{"coords", "coordinates"}
	nestedLatKeys   = []string{"lat", "latitude"}
	nestedLngKeys   = []string{"lng", "lon", "longitude"}
)

type location struct {
	name        string
	coords      domain.Coordinates
	explanation string
}

// normalizeRecord maps one raw oracle record onto a location. A record is
// valid iff it has a non-empty name and both coordinates present (zero is
// present, not absent) and coercible to finite numbers in range.
func normalizeRecord(record map[string]any) (location, bool) {
	name, ok := stringField(record, nameKeys)
	if !ok || name == "" {
		return location{}, false
	}

	lat, latOK := numberField(record, latKeys)
	lng, lngOK := numberField(record, lngKeys)
	if !latOK || !lngOK {
		if nested, ok := coordsObject(record); ok {
			if !latOK {
				lat, latOK = numberField(nested, nestedLatKeys)
			}
			if !lngOK {
				lng, lngOK = numberField(nested, nestedLngKeys)
			}
		}
	}
	if !latOK || !lngOK {
		return location{}, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return location{}, false
	}

	explanation, ok := stringField(record, explanationKeys)
	if !ok || explanation == "" {
		explanation = fallbackExplanation
	}

	return location{
		name:        name,
		coords:      domain.Coordinates{Lat: lat, Lng: lng},
		explanation: explanation,
	}, true
}

func stringField(record map[string]any, keys []string) (string, bool) {
	for _, key := range keys {
		if value, ok := record[key]; ok {
			if s, ok := value.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

func numberField(record map[string]any, keys []string) (float64, bool) {
	for _, key := range keys {
		if value, ok := record[key]; ok {
			if f, ok := toFloat(value); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func coordsObject(record map[string]any) (map[string]any, bool) {
	for _, key := range coordsKeys {
		if value, ok := record[key]; ok {
			if nested, ok := value.(map[string]any); ok {
				return nested, true
			}
		}
	}
	return nil, false
}

// toFloat coerces the shapes the oracle produces for coordinates: JSON
// numbers and plain numeric strings. Anything non-finite is rejected.
func toFloat(value any) (float64, bool) {
	var f float64
	var err error
	switch v := value.(type) {
	case json.Number:
		f, err = v.Float64()
	case float64:
		f = v
	case string:
		f, err = strconv.ParseFloat(v, 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
