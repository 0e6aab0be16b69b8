package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

type fakeMigrator struct {
	upErr   error
	steps   []int
	forced  int
	version uint
	verErr  error
}

func (f *fakeMigrator) Up() error               { return f.upErr }
func (f *fakeMigrator) Steps(n int) error       { f.steps = append(f.steps, n); return nil }
func (f *fakeMigrator) Force(version int) error { f.forced = version; return nil }
func (f *fakeMigrator) Version() (uint, bool, error) {
	return f.version, false, f.verErr
}

func TestRunUpTreatsNoChangeAsSuccess(t *testing.T) {
	if err := run(&fakeMigrator{upErr: migrate.ErrNoChange}, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := run(&fakeMigrator{upErr: errors.New("boom")}, []string{"up"}); err == nil {
		t.Fatal("expected up error")
	}
}

func TestRunDownAndForce(t *testing.T) {
	m := &fakeMigrator{}
	if err := run(m, []string{"down", "2"}); err != nil {
		t.Fatalf("down: %v", err)
	}
	if len(m.steps) != 1 || m.steps[0] != -2 {
		t.Fatalf("expected Steps(-2), got %v", m.steps)
	}
	if err := run(m, []string{"force", "3"}); err != nil || m.forced != 3 {
		t.Fatalf("force: %v (forced=%d)", err, m.forced)
	}
	if err := run(m, []string{"down"}); err == nil {
		t.Fatal("expected error without count")
	}
	if err := run(m, []string{"force", "x"}); err == nil {
		t.Fatal("expected error for bad version")
	}
}

func TestRunVersionAndUnknown(t *testing.T) {
	if err := run(&fakeMigrator{verErr: migrate.ErrNilVersion}, []string{"version"}); err != nil {
		t.Fatalf("nil version should not fail: %v", err)
	}
	if err := run(&fakeMigrator{version: 3}, []string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if err := run(&fakeMigrator{}, []string{"sideways"}); err == nil {
		t.Fatal("expected unknown command error")
	}
}
