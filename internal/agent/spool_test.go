package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmachado/inventra/internal/domain"
)

func testSpool(t *testing.T) *Spool {
	t.Helper()
	return NewSpool(filepath.Join(t.TempDir(), "spool.jsonl"))
}

func spoolSnapshot(ip string) *domain.Snapshot {
	name := "host-" + ip
	return &domain.Snapshot{
		Name:      &name,
		IPAddress: ip,
		Hardware:  domain.ComponentMap{"cpu_info": map[string]interface{}{"model": "i5"}},
	}
}

func TestSpool_DrainEmpty(t *testing.T) {
	s := testSpool(t)

	delivered, err := s.Drain(context.Background(), func(context.Context, *domain.Snapshot) error {
		t.Fatal("deliver called on empty spool")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("expected 0 delivered, got %d", delivered)
	}
}

func TestSpool_DrainInOrder(t *testing.T) {
	s := testSpool(t)
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if err := s.Append(spoolSnapshot(ip)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var got []string
	delivered, err := s.Drain(context.Background(), func(_ context.Context, snap *domain.Snapshot) error {
		got = append(got, snap.IPAddress)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered != 3 {
		t.Fatalf("expected 3 delivered, got %d", delivered)
	}
	want := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}

	if _, err := os.Stat(s.path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected spool file removed after full drain")
	}
}

func TestSpool_FailureKeepsUndelivered(t *testing.T) {
	s := testSpool(t)
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if err := s.Append(spoolSnapshot(ip)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	boom := errors.New("server unreachable")
	delivered, err := s.Drain(context.Background(), func(_ context.Context, snap *domain.Snapshot) error {
		if snap.IPAddress == "10.0.0.2" {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected 1 delivered, got %d", delivered)
	}

	// The failed snapshot and its successor must survive for the next cycle.
	var kept []string
	delivered, err = s.Drain(context.Background(), func(_ context.Context, snap *domain.Snapshot) error {
		kept = append(kept, snap.IPAddress)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered != 2 || len(kept) != 2 || kept[0] != "10.0.0.2" || kept[1] != "10.0.0.3" {
		t.Fatalf("expected [10.0.0.2 10.0.0.3] redelivered, got %v", kept)
	}
}

func TestSpool_MalformedLineDropped(t *testing.T) {
	s := testSpool(t)
	if err := s.Append(spoolSnapshot("10.0.0.1")); err != nil {
		t.Fatalf("append: %v", err)
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()
	if err := s.Append(spoolSnapshot("10.0.0.2")); err != nil {
		t.Fatalf("append: %v", err)
	}

	var got []string
	delivered, err := s.Drain(context.Background(), func(_ context.Context, snap *domain.Snapshot) error {
		got = append(got, snap.IPAddress)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered != 2 || len(got) != 2 || got[0] != "10.0.0.1" || got[1] != "10.0.0.2" {
		t.Fatalf("expected the two valid snapshots delivered, got %v", got)
	}
}
