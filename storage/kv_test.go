package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestKeyValueBackends(t *testing.T) {
	dir := t.TempDir()

	fileKV, err := NewFileKV(filepath.Join(dir, "nested", "localstorage.json"))
	if err != nil {
		t.Fatalf("NewFileKV() error = %v", err)
	}
	sqliteKV, err := NewSQLiteKV(filepath.Join(dir, "hookchat.db"))
	if err != nil {
		t.Fatalf("NewSQLiteKV() error = %v", err)
	}
	t.Cleanup(func() { sqliteKV.Close() })

	backends := []struct {
		name string
		kv   KeyValue
	}{
		{"memory", NewMemoryKV()},
		{"file", fileKV},
		{"sqlite", sqliteKV},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			if _, ok, err := b.kv.Get("missing"); err != nil || ok {
				t.Errorf("Get(missing) = ok %v, err %v; want false, nil", ok, err)
			}

			if err := b.kv.Set("k", "v1"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := b.kv.Set("k", "v2"); err != nil {
				t.Fatalf("Set() overwrite error = %v", err)
			}
			if err := b.kv.Set("empty", ""); err != nil {
				t.Fatalf("Set(empty) error = %v", err)
			}

			v, ok, err := b.kv.Get("k")
			if err != nil || !ok || v != "v2" {
				t.Errorf("Get(k) = (%q, %v, %v), want (v2, true, nil)", v, ok, err)
			}
			v, ok, err = b.kv.Get("empty")
			if err != nil || !ok || v != "" {
				t.Errorf("Get(empty) = (%q, %v, %v), want (\"\", true, nil)", v, ok, err)
			}

			if err := b.kv.Delete("k"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, ok, _ := b.kv.Get("k"); ok {
				t.Error("key still present after Delete()")
			}
			if err := b.kv.Delete("never-set"); err != nil {
				t.Errorf("Delete(never-set) error = %v", err)
			}
		})
	}
}

func TestFileKVPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "localstorage.json")

	first, _ := NewFileKV(path)
	if err := first.Set(CurrentSessionKey, "abc"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	second, _ := NewFileKV(path)
	v, ok, err := second.Get(CurrentSessionKey)
	if err != nil || !ok || v != "abc" {
		t.Errorf("Get() = (%q, %v, %v), want (abc, true, nil)", v, ok, err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("file perms = %v, want 0600", info.Mode().Perm())
		}
	}
}

func TestFileKVRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "localstorage.json")
	if err := os.WriteFile(path, []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}

	kv, _ := NewFileKV(path)
	if _, _, err := kv.Get("k"); err == nil {
		t.Error("expected parse error from corrupt file")
	}

	// The store still loads empty and a save replaces the corrupt file
	store := NewSessionStore(kv)
	if got := store.Load(); len(got) != 0 {
		t.Errorf("Load() = %v, want empty", got)
	}
	store.Save(testSessions())
	if got := store.Load(); len(got) != 2 {
		t.Errorf("Load() after Save() returned %d sessions, want 2", len(got))
	}
}

func TestFileKVSetKeepsDataOnReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "localstorage.json")
	kv, _ := NewFileKV(path)
	if err := kv.Set(SessionsKey, "[]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	errIO := errors.New("input/output error")
	kv.readFile = func(string) ([]byte, error) { return nil, errIO }
	if err := kv.Set(CurrentSessionKey, "abc"); !errors.Is(err, errIO) {
		t.Errorf("Set() error = %v, want read error", err)
	}

	kv.readFile = os.ReadFile
	if v, ok, err := kv.Get(SessionsKey); err != nil || !ok || v != "[]" {
		t.Errorf("Get() = (%q, %v, %v), sessions lost after failed read", v, ok, err)
	}
	if _, ok, _ := kv.Get(CurrentSessionKey); ok {
		t.Error("Set() wrote despite the read error")
	}
}

func TestOpenKeyValue(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		wantErr bool
	}{
		{"file", false},
		{"", false},
		{"sqlite", false},
		{"redis", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			kv, err := OpenKeyValue(tt.backend, dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenKeyValue(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if kv != nil {
				kv.Close()
			}
		})
	}
}
