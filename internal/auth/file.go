package auth

import (
	"os"
	"path/filepath"
	"syscall"
	"time"
)

type fileState struct {
	modTime time.Time
	size    int64
	inode   uint64
	dev     uint64
}

func fileStateFromInfo(info os.FileInfo) fileState {
	state := fileState{
		modTime: info.ModTime(),
		size:    info.Size(),
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		state.inode = stat.Ino
		state.dev = uint64(stat.Dev)
	}
	return state
}

func (s fileState) equal(other fileState) bool {
	return s.size == other.size &&
		s.modTime.Equal(other.modTime) &&
		s.inode == other.inode &&
		s.dev == other.dev
}

// writeFileAtomic replaces path with data through a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
