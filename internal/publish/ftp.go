package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
)

// ftpTransport is a binary-mode FTP session
type ftpTransport struct {
	conn *ftp.ServerConn

	mu    sync.Mutex
	conns []net.Conn // control and data connections, closed on cancellation
	stop  func() bool
}

func dialFTP(ctx context.Context, ep Endpoint, timeout time.Duration) (*ftpTransport, error) {
	t := &ftpTransport{}
	dialer := &net.Dialer{Timeout: timeout}

	conn, err := ftp.Dial(ep.Address(),
		ftp.DialWithTimeout(timeout),
		ftp.DialWithDialFunc(func(network, address string) (net.Conn, error) {
			c, err := dialer.DialContext(ctx, network, address)
			if err != nil {
				return nil, err
			}
			t.track(c)
			return c, nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", ep, err)
	}
	t.conn = conn
	t.stop = context.AfterFunc(ctx, t.abort)

	// Login switches the session to TYPE I
	if err := conn.Login(ep.Username, ep.Password); err != nil {
		t.Close()
		return nil, fmt.Errorf("logging in to %s: %w", ep, err)
	}
	return t, nil
}

func (t *ftpTransport) track(c net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns = append(t.conns, c)
}

// abort tears down every connection so blocked commands return
func (t *ftpTransport) abort() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.conns {
		c.Close()
	}
}

func (t *ftpTransport) MakeDir(ctx context.Context, dir string) (MkdirResult, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return classifyMkdir(dir, t.conn.MakeDir(dir), t.probeDir)
}

// probeDir succeeds when dir exists and is accessible
func (t *ftpTransport) probeDir(dir string) error {
	cwd, err := t.conn.CurrentDir()
	if err != nil {
		return err
	}
	if err := t.conn.ChangeDir(dir); err != nil {
		return err
	}
	return t.conn.ChangeDir(cwd)
}

// classifyMkdir interprets an MKD reply. 550 is shared by "exists" and
// "permission denied", so it only counts as DirExists when probe can enter
// the directory.
func classifyMkdir(dir string, mkdErr error, probe func(string) error) (MkdirResult, error) {
	if mkdErr == nil {
		return DirCreated, nil
	}
	var protoErr *textproto.Error
	if !errors.As(mkdErr, &protoErr) || protoErr.Code != ftp.StatusFileUnavailable {
		return 0, fmt.Errorf("creating %s: %w", dir, mkdErr)
	}
	if err := probe(dir); err != nil {
		return 0, fmt.Errorf("creating %s: %w", dir, mkdErr)
	}
	return DirExists, nil
}

func (t *ftpTransport) Store(ctx context.Context, remotePath string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.conn.Stor(remotePath, r); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("storing %s: %w", remotePath, ctxErr)
		}
		return fmt.Errorf("storing %s: %w", remotePath, err)
	}
	return nil
}

func (t *ftpTransport) Close() error {
	if t.stop != nil {
		t.stop()
	}
	if t.conn == nil {
		return nil
	}
	return t.conn.Quit()
}
