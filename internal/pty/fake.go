package pty

import (
	"bytes"
	"context"
	"io"
	"sync/atomic"
)

// Fake is the in-memory Spawner used by executor/orchestrator tests — the
// mock spawner scenario S1 in the design doc depends on.
type Fake struct {
	// Output is written to the spawned process's Output() stream, then the
	// stream is closed (simulating child exit).
	Output []byte
	// Err, if set, makes Spawn fail with a SpawnError.
	Err error

	calls int32
}

// Calls returns how many times Spawn was invoked.
func (f *Fake) Calls() int32 { return atomic.LoadInt32(&f.calls) }

func (f *Fake) Spawn(ctx context.Context, cmd string, argv []string, env map[string]string) (*SpawnedProcess, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.Err != nil {
		return nil, &SpawnError{Cmd: cmd, Argv: argv, Err: f.Err}
	}

	r := io.NopCloser(bytes.NewReader(f.Output))
	var buf bytes.Buffer
	p := &SpawnedProcess{
		pid:    1,
		output: r,
		input:  nopWriteCloser{&buf},
		done:   make(chan struct{}),
	}
	p.alive.Store(true)
	close(p.done)
	p.alive.Store(false)
	return p, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
