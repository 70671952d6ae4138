package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Role names what an artifact holds.
type Role string

const (
	RoleCiphertext    Role = "ciphertext"
	RolePrivateKeyPEM Role = "private-key-pem"
	RolePrivateKeyBin Role = "private-key-bin"
	RolePublicKeyPEM  Role = "public-key-pem"
)

// File modes for written artifacts.
const (
	PrivateFileMode os.FileMode = 0o600
	PublicFileMode  os.FileMode = 0o644
	dirMode         os.FileMode = 0o755
)

// Artifact records a file written during a run.
type Artifact struct {
	Role      Role      `json:"role"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	SHA256    string    `json:"sha256"`
	Mode      string    `json:"mode"`
	WrittenAt time.Time `json:"written_at"`
}

// FileStorage writes artifacts atomically and keeps a record of each one.
type FileStorage struct {
	mu        sync.Mutex
	artifacts []Artifact
}

func NewFileStorage() *FileStorage {
	return &FileStorage{}
}

// Write stores data at path. The data goes to a temporary file in the same
// directory first and is renamed over path once synced, so path never holds
// a partial write.
func (fs *FileStorage) Write(role Role, path string, data []byte, perm os.FileMode) (Artifact, error) {
	w, err := fs.createWriter(role, path, perm)
	if err != nil {
		return Artifact{}, err
	}

	if _, err := w.Write(data); err != nil {
		w.abort()
		return Artifact{}, fmt.Errorf("failed to write %s: %w", role, err)
	}

	return w.Close()
}

// Read returns the contents of path.
func (fs *FileStorage) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Artifacts returns the written artifacts in write order.
func (fs *FileStorage) Artifacts() []Artifact {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	out := make([]Artifact, len(fs.artifacts))
	copy(out, fs.artifacts)
	return out
}

func (fs *FileStorage) register(a Artifact) {
	fs.mu.Lock()
	fs.artifacts = append(fs.artifacts, a)
	fs.mu.Unlock()
}

// artifactWriter hashes what it writes to a temp file and moves the file into
// place on Close.
type artifactWriter struct {
	file      *os.File
	hash      hash.Hash
	size      int64
	role      Role
	perm      os.FileMode
	storage   *FileStorage
	tempPath  string
	finalPath string
}

func (fs *FileStorage) createWriter(role Role, path string, perm os.FileMode) (*artifactWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path for %s", role)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", role, err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	return &artifactWriter{
		file:      file,
		hash:      sha256.New(),
		role:      role,
		perm:      perm,
		storage:   fs,
		tempPath:  file.Name(),
		finalPath: path,
	}, nil
}

func (w *artifactWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	w.hash.Write(p[:n])
	w.size += int64(n)
	return n, err
}

func (w *artifactWriter) Close() (Artifact, error) {
	if err := w.file.Chmod(w.perm); err != nil {
		w.abort()
		return Artifact{}, fmt.Errorf("failed to set mode on %s: %w", w.role, err)
	}
	if err := w.file.Sync(); err != nil {
		w.abort()
		return Artifact{}, fmt.Errorf("failed to sync %s: %w", w.role, err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tempPath)
		return Artifact{}, fmt.Errorf("failed to close %s: %w", w.role, err)
	}

	if err := os.Rename(w.tempPath, w.finalPath); err != nil {
		os.Remove(w.tempPath)
		return Artifact{}, fmt.Errorf("failed to move %s into place: %w", w.role, err)
	}

	a := Artifact{
		Role:      w.role,
		Path:      w.finalPath,
		Size:      w.size,
		SHA256:    hex.EncodeToString(w.hash.Sum(nil)),
		Mode:      w.perm.String(),
		WrittenAt: time.Now(),
	}
	w.storage.register(a)

	return a, nil
}

func (w *artifactWriter) abort() {
	w.file.Close()
	os.Remove(w.tempPath)
}
