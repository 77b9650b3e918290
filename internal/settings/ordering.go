// Package settings holds the scheduling profile: ordering policy, grouping
// tolerance and stacking direction. The schema matches the /api/settings
// endpoint so the same JSON works for startup configuration and runtime
// inspection.
package settings

import "fmt"

// LayerOrdering selects the algorithm that interleaves part steps into
// global layers. Closed set; anything else is a programming error.
type LayerOrdering string

const (
	// ByHeight groups steps whose shifted slicing planes sit at the same
	// distance along the stacking direction.
	ByHeight LayerOrdering = "by_height"
	// ByLayerNumber zips parts together step index by step index.
	ByLayerNumber LayerOrdering = "by_layer_number"
	// ByPart schedules each part's steps contiguously, one step per layer.
	ByPart LayerOrdering = "by_part"
)

// ValidOrderings contains all valid layer ordering values.
var ValidOrderings = []LayerOrdering{ByHeight, ByLayerNumber, ByPart}

// Valid reports whether o is one of the known orderings.
func (o LayerOrdering) Valid() bool {
	for _, v := range ValidOrderings {
		if o == v {
			return true
		}
	}
	return false
}

// ParseLayerOrdering converts a config or query string into a LayerOrdering.
func ParseLayerOrdering(s string) (LayerOrdering, error) {
	o := LayerOrdering(s)
	if !o.Valid() {
		return "", fmt.Errorf("unknown layer ordering %q (valid: by_height, by_layer_number, by_part)", s)
	}
	return o, nil
}
