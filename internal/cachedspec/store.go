package cachedspec

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// onDiskSpec is the gob-encoded envelope persisted to .cache/<api>.bin. It
// is a type alias of Spec, so the on-disk layout is exactly Spec's exported
// field set and any change to Spec changes the binary format.
type onDiskSpec = Spec

// Store persists and loads Cached Specs as schema-versioned gob binaries
// under <configDir>/.cache/<api>.bin.
type Store struct {
	CacheDir string
}

func NewStore(cacheDir string) *Store {
	return &Store{CacheDir: cacheDir}
}

func (s *Store) path(api string) string {
	return filepath.Join(s.CacheDir, api+".bin")
}

// Save writes spec to disk, overwriting any prior cache for the same API.
func (s *Store) Save(spec *Spec) error {
	if err := os.MkdirAll(s.CacheDir, 0o755); err != nil {
		return apperr.Wrap(apperr.CacheUnavailable, "failed to create cache directory", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode((*onDiskSpec)(spec)); err != nil {
		return apperr.Wrap(apperr.CacheUnavailable, "failed to encode cached spec", err)
	}

	tmp := s.path(spec.Name) + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return apperr.Wrap(apperr.CacheUnavailable, "failed to write cached spec", err)
	}
	if err := os.Rename(tmp, s.path(spec.Name)); err != nil {
		return apperr.Wrap(apperr.CacheUnavailable, "failed to finalize cached spec", err)
	}
	return nil
}

// Load reads the Cached Spec for api. A schema-version mismatch returns a
// CacheUnavailable error so the caller re-derives from the original spec
// (spec.md §3 invariant: "a mismatch forces re-derivation").
func (s *Store) Load(api string) (*Spec, error) {
	raw, err := os.ReadFile(s.path(api))
	if err != nil {
		return nil, apperr.Wrap(apperr.CacheUnavailable, "no cached spec for "+api, err)
	}

	var spec Spec
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&spec); err != nil {
		return nil, apperr.Wrap(apperr.CacheUnavailable, "cached spec for "+api+" is corrupt", err)
	}
	if spec.SchemaVersion != SchemaVersion {
		return nil, apperr.New(apperr.CacheUnavailable, "cached spec schema version mismatch")
	}
	return &spec, nil
}

// Remove deletes the Cached Spec for api, if present.
func (s *Store) Remove(api string) error {
	err := os.Remove(s.path(api))
	if err != nil && !os.IsNotExist(err) {
		return apperr.Wrap(apperr.CacheUnavailable, "failed to remove cached spec", err)
	}
	return nil
}
