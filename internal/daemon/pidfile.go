// Package daemon tracks a background sheet server through a small state
// file holding its PID and listen address.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("already running")
	ErrNotRunning     = errors.New("not running")
)

// Record is the content of a PID file.
type Record struct {
	PID  int
	Addr string
}

// PIDFile manages a PID file for daemon process tracking.
type PIDFile struct {
	Path string
}

// NewPIDFile creates a PIDFile manager for the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{Path: path}
}

// Write records the current process as serving on addr.
func (p *PIDFile) Write(addr string) error {
	return p.WriteRecord(Record{PID: os.Getpid(), Addr: addr})
}

// WriteRecord writes rec to the file, creating the parent directory.
func (p *PIDFile) WriteRecord(rec Record) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}
	content := strconv.Itoa(rec.PID) + "\n"
	if rec.Addr != "" {
		content += rec.Addr + "\n"
	}
	return os.WriteFile(p.Path, []byte(content), 0o644)
}

// Read reads the record from the file. The address line is optional.
func (p *PIDFile) Read() (Record, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return Record{}, err
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Record{}, fmt.Errorf("invalid PID file content: %w", err)
	}
	rec := Record{PID: pid}
	if len(lines) > 1 {
		rec.Addr = strings.TrimSpace(lines[1])
	}
	return rec, nil
}

// Remove deletes the PID file. A missing file is not an error.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// IsRunning reports the recorded process and whether it is alive.
func (p *PIDFile) IsRunning() (Record, bool) {
	rec, err := p.Read()
	if err != nil {
		return Record{}, false
	}
	return rec, alive(rec.PID)
}

// Acquire claims the PID file for the current process. A live owner is an
// error; a stale file is replaced.
func (p *PIDFile) Acquire(addr string) error {
	if rec, running := p.IsRunning(); running {
		return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, rec.PID)
	}
	if err := p.Remove(); err != nil {
		return fmt.Errorf("remove stale PID file: %w", err)
	}
	return p.Write(addr)
}

// Stop asks the recorded process to terminate and waits for it to exit,
// polling every interval. When ctx ends first the process is killed.
func (p *PIDFile) Stop(ctx context.Context, interval time.Duration) (Record, error) {
	rec, running := p.IsRunning()
	if !running {
		_ = p.Remove()
		return rec, ErrNotRunning
	}

	if err := signal(rec.PID, termSignal); err != nil {
		return rec, fmt.Errorf("signal PID %d: %w", rec.PID, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for alive(rec.PID) {
		select {
		case <-ctx.Done():
			if err := signal(rec.PID, killSignal); err != nil && alive(rec.PID) {
				return rec, fmt.Errorf("kill PID %d: %w", rec.PID, err)
			}
			_ = p.Remove()
			return rec, nil
		case <-ticker.C:
		}
	}

	_ = p.Remove()
	return rec, nil
}
