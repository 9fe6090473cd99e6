// Package checkpoints keeps notebook checkpoints in one central directory
// instead of next to each notebook.
//
// Centralized maps a notebook's logical path to a directory derived from the
// SHA-256 of that path and hands every operation to an underlying Store,
// which owns the checkpoint format. DirStore is the file-copy Store used by
// the CLI.
package checkpoints

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoCheckpoint is returned when restoring or deleting a checkpoint that
// does not exist.
var ErrNoCheckpoint = errors.New("no such checkpoint")

// ErrInvalidID is returned for checkpoint ids that are not a plain name.
var ErrInvalidID = errors.New("invalid checkpoint id")

// Checkpoint identifies one saved copy of a file.
type Checkpoint struct {
	ID           string    `json:"id"`
	LastModified time.Time `json:"last_modified"`
}

// Location tells a Store which file is checkpointed and where its
// checkpoints live.
type Location struct {
	File string // physical path of the notebook
	Dir  string // directory holding its checkpoints
}

// Store persists checkpoints at a Location.
type Store interface {
	Create(loc Location) (Checkpoint, error)
	List(loc Location) ([]Checkpoint, error)
	Restore(id string, loc Location) error
	Delete(id string, loc Location) error
}

// Centralized redirects checkpoints of notebooks under ContentRoot into
// Root, fanned out by hash prefix.
type Centralized struct {
	Root        string
	ContentRoot string
	// Fanout is the number of leading hex digits used as an intermediate
	// directory. Zero puts every checkpoint directory directly under Root.
	Fanout int
	Store  Store
}

// Hash returns the hex SHA-256 of the cleaned logical path, so "a/b.ipynb",
// "/a/b.ipynb" and "a//b.ipynb" share checkpoints.
func Hash(logical string) string {
	sum := sha256.Sum256([]byte(cleanLogical(logical)))
	return hex.EncodeToString(sum[:])
}

func cleanLogical(logical string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(logical)), "/")
}

// Dir returns the checkpoint directory for a logical notebook path.
func (c *Centralized) Dir(logical string) string {
	h := Hash(logical)
	fanout := c.Fanout
	if fanout > len(h) {
		fanout = len(h)
	}
	if fanout <= 0 {
		return filepath.Join(c.Root, h)
	}
	return filepath.Join(c.Root, h[:fanout], h)
}

// Locate maps a logical path to its Location, creating the checkpoint
// directory when create is set.
func (c *Centralized) Locate(logical string, create bool) (Location, error) {
	clean := cleanLogical(logical)
	if clean == "" {
		return Location{}, fmt.Errorf("empty notebook path")
	}
	loc := Location{
		File: filepath.Join(c.ContentRoot, filepath.FromSlash(clean)),
		Dir:  c.Dir(clean),
	}
	if create {
		if err := os.MkdirAll(loc.Dir, 0755); err != nil {
			return Location{}, fmt.Errorf("creating checkpoint directory: %w", err)
		}
	}
	return loc, nil
}

// Create checkpoints the notebook at logical.
func (c *Centralized) Create(logical string) (Checkpoint, error) {
	loc, err := c.Locate(logical, true)
	if err != nil {
		return Checkpoint{}, err
	}
	return c.Store.Create(loc)
}

// List returns the checkpoints of the notebook at logical.
func (c *Centralized) List(logical string) ([]Checkpoint, error) {
	loc, err := c.Locate(logical, false)
	if err != nil {
		return nil, err
	}
	return c.Store.List(loc)
}

// Restore overwrites the notebook at logical with checkpoint id.
func (c *Centralized) Restore(id, logical string) error {
	loc, err := c.Locate(logical, false)
	if err != nil {
		return err
	}
	return c.Store.Restore(id, loc)
}

// Delete removes checkpoint id of the notebook at logical.
func (c *Centralized) Delete(id, logical string) error {
	loc, err := c.Locate(logical, false)
	if err != nil {
		return err
	}
	return c.Store.Delete(id, loc)
}
