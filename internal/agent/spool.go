package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rmachado/inventra/internal/domain"
)

// Spool is the agent's offline queue. Snapshots that could not be delivered
// are appended to a JSON-lines file and replayed, oldest first, before the
// next report.
type Spool struct {
	mu   sync.Mutex
	path string
}

func NewSpool(path string) *Spool {
	return &Spool{path: path}
}

func (s *Spool) Append(snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create spool dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open spool: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("append to spool: %w", err)
	}
	return nil
}

// Drain replays spooled snapshots in order. Delivery stops at the first
// failure; the snapshot that failed and everything after it stay spooled.
// Lines that no longer decode are dropped. Returns how many snapshots were
// delivered.
func (s *Spool) Drain(ctx context.Context, deliver func(context.Context, *domain.Snapshot) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read spool: %w", err)
	}

	var (
		remaining  [][]byte
		delivered  int
		deliverErr error
	)
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if deliverErr != nil {
			remaining = append(remaining, line)
			continue
		}
		var snap domain.Snapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			continue
		}
		if err := deliver(ctx, &snap); err != nil {
			deliverErr = err
			remaining = append(remaining, line)
			continue
		}
		delivered++
	}

	if len(remaining) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return delivered, fmt.Errorf("clear spool: %w", err)
		}
		return delivered, deliverErr
	}

	out := append(bytes.Join(remaining, []byte("\n")), '\n')
	if err := os.WriteFile(s.path, out, 0o600); err != nil {
		return delivered, fmt.Errorf("rewrite spool: %w", err)
	}
	return delivered, deliverErr
}
