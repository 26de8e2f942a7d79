package edition

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// Descriptor is the edition.yaml summary of an edition and the runs that
// produced it.
type Descriptor struct {
	Name        string   `yaml:"name"`
	Layers      []string `yaml:"layers"`
	Size        int      `yaml:"size"`
	Fingerprint string   `yaml:"rarity_fingerprint,omitempty"`
	Runs        []Run    `yaml:"runs,omitempty"`
}

// Run records one generate invocation.
type Run struct {
	ID          string    `yaml:"id"`
	Seed        int64     `yaml:"seed"`
	From        int       `yaml:"from"`
	To          int       `yaml:"to"`
	Fingerprint string    `yaml:"rarity_fingerprint,omitempty"`
	At          time.Time `yaml:"at"`
}

// NewRun starts a run record that grows an edition from `from` records to
// `to` records. The ID is a UUID v7 so runs sort by creation time.
func NewRun(seed int64, from, to int, fingerprint string) Run {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Run{
		ID:          id.String(),
		Seed:        seed,
		From:        from,
		To:          to,
		Fingerprint: fingerprint,
		At:          time.Now().UTC(),
	}
}

// Fingerprint returns the hex BLAKE3 digest of a rarity table's bytes. A
// top-up whose fingerprint differs from the edition's was generated under
// different weights.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadDescriptor reads edition.yaml. A missing file returns an error that
// matches fs.ErrNotExist along with an empty descriptor.
func ReadDescriptor(path string) (Descriptor, error) {
	var d Descriptor
	data, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("parse descriptor: %w", err)
	}
	return d, nil
}

// WriteDescriptor writes edition.yaml atomically.
func WriteDescriptor(path string, d Descriptor) error {
	data, err := yaml.Marshal(&d)
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
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
