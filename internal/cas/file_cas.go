package cas

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// FileCAS implements CAS on the file system. Objects are zstd-compressed on
// disk and fanned out over two-character directories (ab/cdef...).
type FileCAS struct {
	root string
}

// NewFileCAS creates a new file-based CAS in the given directory.
func NewFileCAS(root string) (*FileCAS, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create CAS directory: %w", err)
	}
	return &FileCAS{root: root}, nil
}

// Root returns the directory holding the objects.
func (f *FileCAS) Root() string {
	return f.root
}

func (f *FileCAS) getPath(hash Hash) string {
	hexStr := hash.String()
	return filepath.Join(f.root, hexStr[:2], hexStr[2:])
}

// Put implements CAS.Put.
func (f *FileCAS) Put(hash Hash, data []byte) error {
	if computed := SumB3(data); computed != hash {
		return fmt.Errorf("hash mismatch: expected %s, got %s", hash, computed)
	}

	path := f.getPath(hash)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Content addressed: an existing object is already correct.
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	compressed, err := compress(data)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, compressed, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename object: %w", err)
	}
	return nil
}

// Get implements CAS.Get.
func (f *FileCAS) Get(hash Hash) ([]byte, error) {
	file, err := os.Open(f.getPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("hash not found: %s", hash)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	defer file.Close()

	data, err := decompress(file)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", hash, err)
	}

	if computed := SumB3(data); computed != hash {
		return nil, fmt.Errorf("corrupted data: hash mismatch for %s", hash)
	}
	return data, nil
}

// Has implements CAS.Has.
func (f *FileCAS) Has(hash Hash) (bool, error) {
	_, err := os.Stat(f.getPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object: %w", err)
	}
	return true, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd write: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("zstd close: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("read zstd payload: %w", err)
	}
	return data, nil
}
