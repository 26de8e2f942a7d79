package edition

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

// WriteManifest writes m to path atomically as a JSON object with keys in
// ascending numeric order.
func WriteManifest(path string, m types.Manifest) error {
	data, err := MarshalManifest(m)
	if err != nil {
		return err
	}
	err = writeFileAtomic(path, func(w *bufio.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// MarshalManifest encodes m with numeric key order. encoding/json would
// order keys as strings, putting "10" before "2".
func MarshalManifest(m types.Manifest) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',', ' ')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal manifest key: %w", err)
		}
		refs := m[k]
		if refs == nil {
			refs = []string{}
		}
		vb, err := json.Marshal(refs)
		if err != nil {
			return nil, fmt.Errorf("marshal manifest entry %s: %w", k, err)
		}
		buf = append(buf, kb...)
		buf = append(buf, ':', ' ')
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) (types.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m types.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m == nil {
		m = types.Manifest{}
	}
	return m, nil
}
