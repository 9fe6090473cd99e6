package checkpoints

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultID is the single checkpoint id kept per notebook.
const DefaultID = "checkpoint"

// DirStore keeps one file copy per checkpoint id, named <stem>-<id><ext>
// inside the location's directory.
type DirStore struct{}

func (DirStore) path(id string, loc Location) (string, error) {
	if err := validID(id); err != nil {
		return "", err
	}
	base := filepath.Base(loc.File)
	ext := filepath.Ext(base)
	return filepath.Join(loc.Dir, strings.TrimSuffix(base, ext)+"-"+id+ext), nil
}

// validID keeps checkpoint files inside their checkpoint directory.
func validID(id string) error {
	if id == "" || id == "." || strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%q: %w", id, ErrInvalidID)
	}
	return nil
}

// Create copies the notebook into the checkpoint directory.
func (s DirStore) Create(loc Location) (Checkpoint, error) {
	dst, err := s.path(DefaultID, loc)
	if err != nil {
		return Checkpoint{}, err
	}
	if err := copyFile(loc.File, dst); err != nil {
		return Checkpoint{}, fmt.Errorf("creating checkpoint: %w", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("stat checkpoint: %w", err)
	}
	return Checkpoint{ID: DefaultID, LastModified: info.ModTime()}, nil
}

// List returns the existing checkpoint, if any.
func (s DirStore) List(loc Location) ([]Checkpoint, error) {
	path, err := s.path(DefaultID, loc)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	return []Checkpoint{{ID: DefaultID, LastModified: info.ModTime()}}, nil
}

// Restore copies checkpoint id back over the notebook.
func (s DirStore) Restore(id string, loc Location) error {
	src, err := s.path(id, loc)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s for %s: %w", id, loc.File, ErrNoCheckpoint)
	}
	if err := copyFile(src, loc.File); err != nil {
		return fmt.Errorf("restoring checkpoint: %w", err)
	}
	return nil
}

// Delete removes checkpoint id.
func (s DirStore) Delete(id string, loc Location) error {
	path, err := s.path(id, loc)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s for %s: %w", id, loc.File, ErrNoCheckpoint)
	}
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}

// copyFile copies src to dst, preserving the source permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
