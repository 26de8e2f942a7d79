package types

import (
	"fmt"
	"strconv"
	"strings"
)

// GroupDirPrefix starts the directory name of every group.
const GroupDirPrefix = "group "

// Group is a named subset of an edition's item indices. Groups of one
// partitioning are disjoint and their union is the whole edition.
type Group struct {
	Name    string `json:"name"`
	Indices []int  `json:"indices"`
}

// GroupName returns the directory name of the n-th group (1-based) out of
// total, zero-padded to the width of total.
func GroupName(n, total int) string {
	return fmt.Sprintf("%s%0*d", GroupDirPrefix, len(strconv.Itoa(total)), n)
}

// IsGroupDir reports whether a directory entry name denotes a group.
func IsGroupDir(name string) bool {
	return strings.HasPrefix(name, GroupDirPrefix)
}

// Layout is the on-disk arrangement of an edition's rendered items.
type Layout int

const (
	// LayoutFlat: every item lives directly in the images directory.
	LayoutFlat Layout = iota
	// LayoutGrouped: every item lives in a group directory.
	LayoutGrouped
	// LayoutMixed: group directories exist but flat items remain, the
	// signature of an interrupted partition or reversal.
	LayoutMixed
)

func (l Layout) String() string {
	switch l {
	case LayoutFlat:
		return "flat"
	case LayoutGrouped:
		return "grouped"
	case LayoutMixed:
		return "mixed"
	default:
		return "unknown"
	}
}
