// Package publish uploads exported bundles to remote FTP and SFTP archives.
package publish

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// MkdirResult reports what MakeDir did
type MkdirResult int

const (
	DirCreated MkdirResult = iota + 1
	DirExists
)

func (r MkdirResult) String() string {
	switch r {
	case DirCreated:
		return "created"
	case DirExists:
		return "exists"
	}
	return "unknown"
}

// Transport is an authenticated session with a remote file archive
type Transport interface {
	// MakeDir creates a single directory. An existing directory is not an error.
	MakeDir(ctx context.Context, dir string) (MkdirResult, error)

	// Store uploads r to the remote path, replacing any existing file
	Store(ctx context.Context, remotePath string, r io.Reader) error

	// Close ends the session
	Close() error
}

// Protocols supported by Dial
const (
	ProtocolFTP  = "ftp"
	ProtocolSFTP = "sftp"
)

// Endpoint describes one remote destination
type Endpoint struct {
	Name       string `toml:"-"`
	Protocol   string `toml:"protocol"`
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	BasePath   string `toml:"base_path"`
	KnownHosts string `toml:"known_hosts"` // sftp only; empty skips host key checks
}

// Address returns host:port, filling in the protocol's default port
func (e Endpoint) Address() string {
	port := e.Port
	if port == 0 {
		port = 21
		if strings.EqualFold(e.Protocol, ProtocolSFTP) {
			port = 22
		}
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(port))
}

// String identifies the endpoint in logs without credentials
func (e Endpoint) String() string {
	proto := e.Protocol
	if proto == "" {
		proto = ProtocolFTP
	}
	return fmt.Sprintf("%s://%s@%s", strings.ToLower(proto), e.Username, e.Address())
}

// Dialer opens transport sessions
type Dialer interface {
	Dial(ctx context.Context, ep Endpoint) (Transport, error)
}

// DialerFunc adapts a function to the Dialer interface
type DialerFunc func(ctx context.Context, ep Endpoint) (Transport, error)

// Dial implements Dialer
func (f DialerFunc) Dial(ctx context.Context, ep Endpoint) (Transport, error) {
	return f(ctx, ep)
}

// NetDialer dials real FTP and SFTP servers
type NetDialer struct {
	Timeout time.Duration // connection and handshake timeout
}

// Dial implements Dialer
func (d NetDialer) Dial(ctx context.Context, ep Endpoint) (Transport, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	switch strings.ToLower(ep.Protocol) {
	case "", ProtocolFTP:
		return dialFTP(ctx, ep, timeout)
	case ProtocolSFTP:
		return dialSFTP(ctx, ep, timeout)
	}
	return nil, fmt.Errorf("unsupported protocol %q", ep.Protocol)
}

// MakeDirAll creates dir component by component. Absolute paths keep their
// leading slash.
func MakeDirAll(ctx context.Context, t Transport, dir string) (MkdirResult, error) {
	dir = strings.TrimRight(dir, "/")
	if dir == "" {
		return DirExists, nil
	}

	prefix := ""
	if strings.HasPrefix(dir, "/") {
		prefix = "/"
	}
	result := DirExists
	current := ""
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part == "" {
			continue
		}
		if current == "" {
			current = prefix + part
		} else {
			current = current + "/" + part
		}
		r, err := t.MakeDir(ctx, current)
		if err != nil {
			return 0, err
		}
		if r == DirCreated {
			result = DirCreated
		}
	}
	return result, nil
}
