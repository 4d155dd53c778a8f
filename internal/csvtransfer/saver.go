package csvtransfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Opener reads the blob behind a ref. *BlobStore satisfies it.
type Opener interface {
	Open(ref BlobRef) (io.Reader, error)
}

// Saver performs the save-as action for a downloaded blob.
type Saver interface {
	Save(ctx context.Context, name string, ref BlobRef, blobs Opener) error
}

// DirSaver writes downloads into Dir. Each file appears atomically: data goes
// to a temp file in Dir which is then renamed into place.
type DirSaver struct {
	Dir string
}

// Save writes the blob behind ref to Dir/name.
func (d DirSaver) Save(ctx context.Context, name string, ref BlobRef, blobs Opener) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == ".." {
		return fmt.Errorf("save %q: invalid file name", name)
	}
	src, err := blobs.Open(ref)
	if err != nil {
		return fmt.Errorf("save %s: %w", base, err)
	}

	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", base, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", base, err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, base)); err != nil {
		return fmt.Errorf("rename %s: %w", base, err)
	}
	return nil
}
