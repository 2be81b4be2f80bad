package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestIsLogChange(t *testing.T) {
	cases := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"csv write", fsnotify.Event{Name: "logs/a.csv", Op: fsnotify.Write}, true},
		{"xz create", fsnotify.Event{Name: "logs/a.jsonl.xz", Op: fsnotify.Create}, true},
		{"csv chmod", fsnotify.Event{Name: "logs/a.csv", Op: fsnotify.Chmod}, false},
		{"csv remove", fsnotify.Event{Name: "logs/a.csv", Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: "logs/notes.txt", Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isLogChange(tc.ev); got != tc.want {
				t.Fatalf("isLogChange(%v) = %v, want %v", tc.ev, got, tc.want)
			}
		})
	}
}

func TestChangeWatcherSeesNewLog(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(existing, []byte("process_name,activity_name,duration_ms\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	w, err := newChangeWatcher([]string{existing, existing})
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "b.csv"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-w.Events:
			if isLogChange(ev) && filepath.Base(ev.Name) == "b.csv" {
				return
			}
		case err := <-w.Errors:
			t.Fatalf("watcher error: %v", err)
		case <-deadline:
			t.Fatal("no change event for b.csv")
		}
	}
}
