package pty

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestRealSpawnEchoesOutput(t *testing.T) {
	r := NewReal()
	p, err := r.Spawn(context.Background(), "/bin/echo", []string{"hello"}, nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	out, err := io.ReadAll(p.Output())
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(out) != "hello\n" {
		t.Fatalf("output = %q, want %q", out, "hello\n")
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if p.IsAlive() {
		t.Fatal("process should not be alive after exit")
	}
}

func TestRealSpawnMissingBinaryReturnsSpawnError(t *testing.T) {
	r := NewReal()
	_, err := r.Spawn(context.Background(), "/no/such/binary-xyz", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var se *SpawnError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SpawnError, got %T", err)
	}
}

func TestFakeSpawnerReturnsConfiguredOutput(t *testing.T) {
	f := &Fake{Output: []byte("code written\n")}
	p, err := f.Spawn(context.Background(), "agent", nil, nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	out, _ := io.ReadAll(p.Output())
	if string(out) != "code written\n" {
		t.Fatalf("output = %q", out)
	}
	if f.Calls() != 1 {
		t.Fatalf("Calls() = %d, want 1", f.Calls())
	}
}

func TestFakeSpawnerErr(t *testing.T) {
	f := &Fake{Err: errors.New("boom")}
	_, err := f.Spawn(context.Background(), "agent", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}
