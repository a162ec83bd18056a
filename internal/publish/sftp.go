package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// sftpTransport is an SFTP session over SSH
type sftpTransport struct {
	client *sftp.Client
	conn   io.Closer // underlying ssh client, may be nil
}

func dialSFTP(ctx context.Context, ep Endpoint, timeout time.Duration) (*sftpTransport, error) {
	hostKey := ssh.InsecureIgnoreHostKey()
	if ep.KnownHosts != "" {
		cb, err := knownhosts.New(ep.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts: %w", err)
		}
		hostKey = cb
	}
	cfg := &ssh.ClientConfig{
		User:            ep.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(ep.Password)},
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	}

	addr := ep.Address()
	dialer := &net.Dialer{Timeout: timeout}
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", ep, err)
	}
	sc, chans, reqs, err := ssh.NewClientConn(nc, addr, cfg)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", ep, err)
	}
	sshClient := ssh.NewClient(sc, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("starting sftp on %s: %w", ep, err)
	}
	return &sftpTransport{client: client, conn: sshClient}, nil
}

func (t *sftpTransport) MakeDir(ctx context.Context, dir string) (MkdirResult, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fi, err := t.client.Stat(dir)
	if err == nil {
		if !fi.IsDir() {
			return 0, fmt.Errorf("creating %s: exists and is not a directory", dir)
		}
		return DirExists, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := t.client.Mkdir(dir); err != nil {
		return 0, fmt.Errorf("creating %s: %w", dir, err)
	}
	return DirCreated, nil
}

func (t *sftpTransport) Store(ctx context.Context, remotePath string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := t.client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("storing %s: %w", remotePath, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("storing %s: %w", remotePath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("storing %s: %w", remotePath, err)
	}
	return nil
}

func (t *sftpTransport) Close() error {
	err := t.client.Close()
	if t.conn != nil {
		if cerr := t.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
