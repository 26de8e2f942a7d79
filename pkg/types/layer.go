package types

import "math"

// NoneTrait is the sentinel trait meaning the layer contributes nothing to
// the composite.
const NoneTrait = "none"

// Layer is one axis of variation. Traits, Weights, and Cumulative are
// aligned index for index; a synthetic NoneTrait, when present, is always
// first.
type Layer struct {
	ID         int       `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Traits     []string  `json:"traits" yaml:"traits"`
	Weights    []float64 `json:"weights" yaml:"weights"`
	Cumulative []float64 `json:"cumulative" yaml:"cumulative"`
}

// HasNone reports whether the layer may be left empty.
func (l Layer) HasNone() bool {
	return len(l.Traits) > 0 && l.Traits[0] == NoneTrait
}

// TraitIndex returns the index of trait in the layer, or -1.
func (l Layer) TraitIndex(trait string) int {
	for i, t := range l.Traits {
		if t == trait {
			return i
		}
	}
	return -1
}

// EditionConfig is the ordered set of layers used for one generation run.
// Layers are sorted by ID. Treat as immutable once built.
type EditionConfig struct {
	Layers []Layer `json:"layers" yaml:"layers"`
}

// LayerNames returns the layer names in generation order.
func (c EditionConfig) LayerNames() []string {
	names := make([]string, len(c.Layers))
	for i, l := range c.Layers {
		names[i] = l.Name
	}
	return names
}

// Layer returns the layer with the given name.
func (c EditionConfig) Layer(name string) (Layer, bool) {
	for _, l := range c.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// TotalCombinations returns the product of the trait counts of every
// layer, saturating at math.MaxInt64.
func (c EditionConfig) TotalCombinations() int64 {
	if len(c.Layers) == 0 {
		return 0
	}
	var total int64 = 1
	for _, l := range c.Layers {
		n := int64(len(l.Traits))
		if n == 0 {
			return 0
		}
		if total > math.MaxInt64/n {
			return math.MaxInt64
		}
		total *= n
	}
	return total
}

// AssetRef returns the reference of a trait's asset relative to the assets
// directory. References always use forward slashes.
func AssetRef(layer, trait, ext string) string {
	return layer + "/" + trait + "." + ext
}
