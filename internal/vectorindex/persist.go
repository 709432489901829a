package vectorindex

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spigell/hr-assistant/internal/hr"
)

const (
	IndexFile    = "candidates.index"
	MetadataFile = "candidates.meta.json"
)

// Metadata maps index positions to candidate identities. Checksum is the
// sha256 of the index file it was written with.
type Metadata struct {
	Dimension int                    `json:"dimension"`
	Checksum  string                 `json:"checksum"`
	Entries   []hr.CandidateIdentity `json:"entries"`
}

// SavePair writes the index and its metadata into dir. The index is renamed
// into place first; a crash in between leaves metadata whose checksum no
// longer matches, which LoadPair reports as inconsistent.
func SavePair(dir string, index *Flat, meta Metadata) error {
	if index.Len() != len(meta.Entries) {
		return fmt.Errorf("%w: %d vectors, %d metadata entries", hr.ErrInconsistentIndex, index.Len(), len(meta.Entries))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	data, err := index.MarshalBinary()
	if err != nil {
		return err
	}
	if err := writeAtomic(filepath.Join(dir, IndexFile), data); err != nil {
		return err
	}

	meta.Dimension = index.Dim()
	meta.Checksum = checksum(data)
	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index metadata: %w", err)
	}
	return writeAtomic(filepath.Join(dir, MetadataFile), encoded)
}

// LoadPair reads both files from dir. It wraps fs.ErrNotExist when neither
// exists and hr.ErrInconsistentIndex when only one exists or they were not
// written together.
func LoadPair(dir string) (*Flat, Metadata, error) {
	indexData, indexErr := os.ReadFile(filepath.Join(dir, IndexFile))
	metaData, metaErr := os.ReadFile(filepath.Join(dir, MetadataFile))

	indexMissing := errors.Is(indexErr, fs.ErrNotExist)
	metaMissing := errors.Is(metaErr, fs.ErrNotExist)
	switch {
	case indexMissing && metaMissing:
		return nil, Metadata{}, fmt.Errorf("load index from %s: %w", dir, fs.ErrNotExist)
	case indexMissing || metaMissing:
		return nil, Metadata{}, fmt.Errorf("%w: index and metadata files must both exist", hr.ErrInconsistentIndex)
	case indexErr != nil:
		return nil, Metadata{}, fmt.Errorf("read index: %w", indexErr)
	case metaErr != nil:
		return nil, Metadata{}, fmt.Errorf("read index metadata: %w", metaErr)
	}

	var meta Metadata
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: decode metadata: %v", hr.ErrInconsistentIndex, err)
	}
	if sum := checksum(indexData); meta.Checksum != sum {
		return nil, Metadata{}, fmt.Errorf("%w: metadata checksum %q does not match index %q", hr.ErrInconsistentIndex, meta.Checksum, sum)
	}

	index := &Flat{}
	if err := index.UnmarshalBinary(indexData); err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %v", hr.ErrInconsistentIndex, err)
	}
	if len(meta.Entries) != index.Len() {
		return nil, Metadata{}, fmt.Errorf("%w: %d vectors, %d metadata entries", hr.ErrInconsistentIndex, index.Len(), len(meta.Entries))
	}
	if meta.Dimension != 0 && meta.Dimension != index.Dim() {
		return nil, Metadata{}, fmt.Errorf("%w: metadata dimension %d, index dimension %d", hr.ErrInconsistentIndex, meta.Dimension, index.Dim())
	}

	return index, meta, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
