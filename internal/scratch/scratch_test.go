package scratch

import (
	"errors"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestPutGet verifies a stored value reads back, and that Put replaces.
func TestPutGet(t *testing.T) {
	s := openTemp(t)
	key := ActiveSessionKey(1)

	if err := s.Put(key, []byte(`{"id":"a"}`)); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"id":"a"}` {
		t.Errorf("value = %s", got)
	}

	if err := s.Put(key, []byte(`{"id":"b"}`)); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get(key)
	if string(got) != `{"id":"b"}` {
		t.Errorf("value after replace = %s", got)
	}
}

// TestGetMissing verifies an absent key yields ErrNotFound, the signal the
// lifecycle manager treats as Idle state at startup.
func TestGetMissing(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// TestKeysScopedPerUser verifies two users' session keys address distinct
// values in the same store.
func TestKeysScopedPerUser(t *testing.T) {
	s := openTemp(t)
	if err := s.Put(ActiveSessionKey(1), []byte("ana")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ActiveSessionKey(2)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("user 2 err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ActiveSessionKey(2)); err != nil {
		t.Fatal(err)
	}
	if got, err := s.Get(ActiveSessionKey(1)); err != nil || string(got) != "ana" {
		t.Errorf("user 1 value = %s, err = %v", got, err)
	}
}

// TestDelete verifies deletion, including of absent keys.
func TestDelete(t *testing.T) {
	s := openTemp(t)
	key := ActiveSessionKey(1)
	if err := s.Put(key, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(key); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err after delete = %v, want ErrNotFound", err)
	}
	// Deleting again is a no-op.
	if err := s.Delete(key); err != nil {
		t.Fatal(err)
	}
}
