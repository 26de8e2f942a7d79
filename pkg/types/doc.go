// Package types defines the layer, edition, and group entities shared by the
// traitforge generation and partitioning engine, together with the error
// kinds every component reports.
//
// An EditionConfig is the probability model built from a rarity table. An
// Edition is the ordered, 1-indexed set of unique AssetRecords sampled from
// that model. A Group is a disjoint slice of an edition's indices persisted
// as its own directory.
package types
