package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cinescope/apiserver/types"
)

func TestStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	first := NewStore(path)
	if err := first.Load(); err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if first.IsAuthenticated() {
		t.Fatalf("expected logged out")
	}

	if err := first.Save("tok", types.User{ID: "u1", Username: "jane"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected mode %v", info.Mode().Perm())
	}

	second := NewStore(path)
	if err := second.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	current, ok := second.Current()
	if !ok || current.Token != "tok" || current.User.Username != "jane" {
		t.Fatalf("unexpected session: %+v", current)
	}

	if err := second.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected session file removed, got %v", err)
	}
	if err := first.Load(); err != nil || first.IsAuthenticated() {
		t.Fatalf("expected reload to log out, got %v", err)
	}
}

func TestClearOnFreshDirectory(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "cinescope", "session.json"))
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatalf("expected logged out")
	}
}

func TestStoreSubscribe(t *testing.T) {
	store := NewStore("")
	var seen []*Session
	cancel := store.Subscribe(func(s *Session) { seen = append(seen, s) })

	if err := store.Save("tok", types.User{ID: "u1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.UpdateUser(types.User{ID: "u1", Username: "renamed"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cancel()
	_ = store.Save("again", types.User{})

	if len(seen) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(seen))
	}
	if seen[1].Token != "tok" || seen[1].User.Username != "renamed" || seen[2] != nil {
		t.Fatalf("unexpected notifications: %+v %+v", seen[1], seen[2])
	}
}

func TestUpdateUserWhileLoggedOut(t *testing.T) {
	store := NewStore("")
	if err := store.UpdateUser(types.User{ID: "u1"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatalf("update must not log in")
	}
}
