package types

import (
	"fmt"
	"strconv"
	"strings"
)

// AssetRecord is one generated combination. Traits holds one trait name per
// layer in layer order; Assets holds the resolved references of the
// non-none traits in the same order. Records are never mutated once
// accepted into an edition.
type AssetRecord struct {
	Traits []string `json:"traits"`
	Assets []string `json:"assets"`
}

// keySep cannot appear in a file name, so joined tuples never collide.
const keySep = "\x1f"

// Key identifies the record's trait tuple. Two records are duplicates iff
// their keys are equal.
func (r AssetRecord) Key() string {
	return strings.Join(r.Traits, keySep)
}

// Edition is an ordered, 1-indexed sequence of unique records together with
// the config that produced them.
type Edition struct {
	Name    string
	Config  EditionConfig
	Records []AssetRecord
}

// Len returns the number of records.
func (e *Edition) Len() int {
	return len(e.Records)
}

// Record returns the record at the 1-based index.
func (e *Edition) Record(index int) (AssetRecord, error) {
	if index < 1 || index > len(e.Records) {
		return AssetRecord{}, fmt.Errorf("index %d out of range [1, %d]", index, len(e.Records))
	}
	return e.Records[index-1], nil
}

// Manifest is the index-keyed reference projection of an edition. Keys are
// 1-based indices rendered as decimal strings.
type Manifest map[string][]string

// Manifest projects the edition into its manifest.
func (e *Edition) Manifest() Manifest {
	m := make(Manifest, len(e.Records))
	for i, r := range e.Records {
		m[strconv.Itoa(i+1)] = append([]string(nil), r.Assets...)
	}
	return m
}

// Subset returns the manifest restricted to the given indices. Indices
// missing from m are omitted.
func (m Manifest) Subset(indices []int) Manifest {
	out := make(Manifest, len(indices))
	for _, idx := range indices {
		key := strconv.Itoa(idx)
		if refs, ok := m[key]; ok {
			out[key] = refs
		}
	}
	return out
}

// Indices returns the manifest keys as integers. Keys that do not parse are
// skipped.
func (m Manifest) Indices() []int {
	out := make([]int, 0, len(m))
	for k := range m {
		if n, err := strconv.Atoi(k); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// ItemExt is the extension of rendered items. The compositor always
// encodes PNG whatever the asset extension.
const ItemExt = "png"

// ItemWidth returns the zero-pad width of rendered item file names for an
// edition of the given size.
func ItemWidth(size int) int {
	return len(strconv.Itoa(size))
}

// ItemFileName returns the rendered file name of the item at index, e.g.
// "007.png" for index 7 in an edition of 250.
func ItemFileName(index, size int, ext string) string {
	return fmt.Sprintf("%0*d.%s", ItemWidth(size), index, ext)
}
