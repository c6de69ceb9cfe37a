package wallet

import (
	"fmt"
	"os"
	"path/filepath"
)

// credentialFile is the fixed storage name for the single device keypair.
const credentialFile = "keypair.json"

// CredentialStore provides durable storage of an opaque credential blob.
// Get returns ErrCredentialMissing when nothing has been stored; store
// faults are reported as a distinct failure kind.
type CredentialStore interface {
	Get() ([]byte, error)
	Set(blob []byte) error
}

// FileStore keeps the credential blob in a file with owner-only permissions.
type FileStore struct {
	dir string
}

// NewFileStore creates the credential directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialStore, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, credentialFile)
}

// Get reads the stored blob. A missing file is "absent", not an error.
func (s *FileStore) Get() ([]byte, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialMissing
		}
		return nil, fmt.Errorf("%w: %v", ErrCredentialStore, err)
	}
	return data, nil
}

// Set replaces the stored blob. The write goes to a temp file followed by a
// rename, so a concurrent Get sees either the old or the new blob, never a
// torn one.
func (s *FileStore) Set(blob []byte) error {
	tmp, err := os.CreateTemp(s.dir, credentialFile+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCredentialStore, err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrCredentialStore, err)
	}
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrCredentialStore, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrCredentialStore, err)
	}

	if err := os.Rename(tmpPath, s.path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrCredentialStore, err)
	}
	return nil
}
