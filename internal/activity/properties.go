package activity

import (
	"strings"
)

// identLength is the number of leading characters of the provider index key
// that form the canonical image identifier.
const identLength = 23

// NormalizeProperties turns raw provider property rows into normalized
// per-image records keyed by the canonical identifier. A missing index key is
// an input-contract violation and fatal for the location; unknown provider
// bookkeeping columns were already ignored by the loader.
func NormalizeProperties(raws []RawImageProperty) (map[string]ImageProperty, error) {
	props := make(map[string]ImageProperty, len(raws))
	for i, raw := range raws {
		if raw.SystemIndex == "" {
			return nil, contractErr("system:index", "empty index key at row %d", i)
		}
		ident := CanonicalIdent(raw.SystemIndex)
		props[ident] = ImageProperty{
			Ident:        ident,
			Instrument:   DetermineSensor(ident),
			CloudPercent: raw.CloudPercent,
			ClearPercent: raw.ClearPercent,
			Acquired:     raw.Acquired,
		}
	}
	return props, nil
}

// CanonicalIdent truncates a provider index key to the canonical image
// identifier.
func CanonicalIdent(indexKey string) string {
	if len(indexKey) > identLength {
		return indexKey[:identLength]
	}
	return indexKey
}

// DetermineSensor classifies the imagery generation from the identifier
// shape: identifiers ending in "3B" or carrying a "_1_" segment come from the
// first-generation instrument, everything else from the second.
func DetermineSensor(ident string) Sensor {
	tail := ident
	if len(ident) > 2 {
		tail = ident[len(ident)-2:]
	}
	if strings.Contains(tail, "3B") || strings.Contains(ident, "_1_") {
		return SensorPS2
	}
	return SensorSuperDove
}
