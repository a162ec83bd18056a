package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/phuslu/log"
)

// FileResult is the outcome of one upload
type FileResult struct {
	Local  string
	Remote string
	Bytes  int64
	Err    error
}

// Result is the outcome of publishing a set of files to one endpoint
type Result struct {
	Endpoint  string // Endpoint name, e.g. primary
	Target    string // Endpoint address without credentials
	RemoteDir string
	Dir       MkdirResult
	Files     []FileResult
	Err       error // session-level failure: dial, login or mkdir
}

// OK reports whether the session and every upload succeeded
func (r Result) OK() bool {
	return r.Err == nil && r.Failed() == 0
}

// Failed returns the number of files that were not uploaded
func (r Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Failure summarizes the first failure, or returns nil
func (r Result) Failure() error {
	if r.Err != nil {
		return r.Err
	}
	for _, f := range r.Files {
		if f.Err != nil {
			return fmt.Errorf("%d of %d uploads to %s failed: %w", r.Failed(), len(r.Files), r.Endpoint, f.Err)
		}
	}
	return nil
}

// Publisher uploads files through a Dialer
type Publisher struct {
	dialer  Dialer
	timeout time.Duration
	logger  *log.Logger
}

// NewPublisher creates a publisher. timeout bounds each session; zero
// means no limit beyond the caller's context.
func NewPublisher(dialer Dialer, timeout time.Duration, logger *log.Logger) *Publisher {
	return &Publisher{dialer: dialer, timeout: timeout, logger: logger}
}

// Publish opens a session to ep, ensures remoteDir exists and uploads files
// into it. Individual upload failures do not stop the remaining uploads.
func (p *Publisher) Publish(ctx context.Context, ep Endpoint, remoteDir string, files []string) Result {
	res := Result{Endpoint: ep.Name, Target: ep.String(), RemoteDir: remoteDir}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	t, err := p.dialer.Dial(ctx, ep)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() {
		if err := t.Close(); err != nil {
			p.logger.Debug().Err(err).Str("endpoint", ep.Name).Msg("closing session")
		}
	}()

	res.Dir, err = MakeDirAll(ctx, t, remoteDir)
	if err != nil {
		res.Err = err
		return res
	}
	p.logger.Info().Str("endpoint", ep.Name).Str("dir", remoteDir).Stringer("mkdir", res.Dir).Msg("remote directory ready")

	for _, local := range files {
		fr := FileResult{Local: local, Remote: path.Join(remoteDir, filepath.Base(local))}
		fr.Bytes, fr.Err = store(ctx, t, local, fr.Remote)
		if fr.Err != nil {
			p.logger.Error().Err(fr.Err).Str("endpoint", ep.Name).Str("file", fr.Remote).Msg("upload failed")
		} else {
			p.logger.Info().Str("endpoint", ep.Name).Str("file", fr.Remote).Int64("bytes", fr.Bytes).Msg("uploaded")
		}
		res.Files = append(res.Files, fr)
	}
	return res
}

func store(ctx context.Context, t Transport, local, remote string) (int64, error) {
	f, err := os.Open(local)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", local, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", local, err)
	}
	if err := t.Store(ctx, remote, f); err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
