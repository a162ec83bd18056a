package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// memTransport is an in-memory Transport recording every call
type memTransport struct {
	mu       sync.Mutex
	dirs     map[string]bool
	files    map[string][]byte
	calls    []string
	failDir  string // MakeDir of this path fails
	failFile string // Store of this path fails
	closed   bool
}

func newMemTransport() *memTransport {
	return &memTransport{dirs: make(map[string]bool), files: make(map[string][]byte)}
}

func (m *memTransport) MakeDir(ctx context.Context, dir string) (MkdirResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "MKD "+dir)
	if dir == m.failDir {
		return 0, fmt.Errorf("creating %s: 550 permission denied", dir)
	}
	if m.dirs[dir] {
		return DirExists, nil
	}
	m.dirs[dir] = true
	return DirCreated, nil
}

func (m *memTransport) Store(ctx context.Context, remotePath string, r io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "STOR "+remotePath)
	if remotePath == m.failFile {
		return errors.New("552 quota exceeded")
	}
	if i := strings.LastIndex(remotePath, "/"); i > 0 && !m.dirs[remotePath[:i]] {
		return fmt.Errorf("storing %s: no such directory", remotePath)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.files[remotePath] = data
	return nil
}

func (m *memTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
