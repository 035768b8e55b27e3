package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "nested", "audit.sqlite"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndListNicknameChanges(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	changes := []NicknameChange{
		{GuildID: "g1", ActorID: "u1", TargetID: "u1", Nickname: "Bob | NYU", NicknameOutcome: "applied", RoleOutcome: "granted", CreatedAt: base},
		{GuildID: "g1", ActorID: "mod", TargetID: "u2", Nickname: "Eve | MIT", NicknameOutcome: "permission_denied", RoleOutcome: "not_attempted", CreatedAt: base.Add(time.Minute)},
		{GuildID: "g2", ActorID: "u3", TargetID: "u3", Nickname: "Al | ETH", NicknameOutcome: "applied", RoleOutcome: "already_present", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, c := range changes {
		id, err := s.RecordNicknameChange(ctx, c)
		if err != nil {
			t.Fatalf("RecordNicknameChange() failed: %v", err)
		}
		if id <= 0 {
			t.Fatalf("expected positive id, got %d", id)
		}
	}

	got, err := s.ListNicknameChanges(ctx, ListFilter{GuildID: "g1"})
	if err != nil {
		t.Fatalf("ListNicknameChanges() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows for g1, got %d", len(got))
	}
	if got[0].TargetID != "u2" || got[1].TargetID != "u1" {
		t.Fatalf("expected newest first, got %s then %s", got[0].TargetID, got[1].TargetID)
	}
	if !got[1].CreatedAt.Equal(base) {
		t.Fatalf("expected created_at=%s, got %s", base.Format(time.RFC3339), got[1].CreatedAt.Format(time.RFC3339))
	}
	if got[0].NicknameOutcome != "permission_denied" || got[0].RoleOutcome != "not_attempted" {
		t.Fatalf("unexpected outcomes: %+v", got[0])
	}

	limited, err := s.ListNicknameChanges(ctx, ListFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListNicknameChanges(limit) failed: %v", err)
	}
	if len(limited) != 1 || limited[0].GuildID != "g2" {
		t.Fatalf("expected newest row only, got %+v", limited)
	}

	byTarget, err := s.ListNicknameChanges(ctx, ListFilter{TargetID: "u3"})
	if err != nil {
		t.Fatalf("ListNicknameChanges(target) failed: %v", err)
	}
	if len(byTarget) != 1 || byTarget[0].Nickname != "Al | ETH" {
		t.Fatalf("unexpected rows for u3: %+v", byTarget)
	}
}

func TestPruneNicknameChanges(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{old, recent} {
		if _, err := s.RecordNicknameChange(ctx, NicknameChange{GuildID: "g", ActorID: "a", TargetID: "t", Nickname: "n", NicknameOutcome: "applied", RoleOutcome: "granted", CreatedAt: at}); err != nil {
			t.Fatalf("RecordNicknameChange() failed: %v", err)
		}
	}

	n, err := s.PruneNicknameChanges(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PruneNicknameChanges() failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned row, got %d", n)
	}

	rest, err := s.ListNicknameChanges(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListNicknameChanges() failed: %v", err)
	}
	if len(rest) != 1 || !rest[0].CreatedAt.Equal(recent) {
		t.Fatalf("expected only the recent row to remain, got %+v", rest)
	}
}

func TestUninitializedStore(t *testing.T) {
	t.Parallel()
	s := NewStore("")
	if err := s.Init(); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := s.RecordNicknameChange(context.Background(), NicknameChange{}); err == nil {
		t.Fatalf("expected error from uninitialized store")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() on uninitialized store: %v", err)
	}
}
