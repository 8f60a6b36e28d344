package testutil

import (
	"os"
	"testing"
	"time"
)

func TestTempDir(t *testing.T) {
	dir := TempDir(t)
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("temp dir does not exist: %v", err)
	}
}

func TestFreeTCPPort(t *testing.T) {
	port := FreeTCPPort(t)
	if port <= 0 || port > 65535 {
		t.Fatalf("invalid port: %d", port)
	}
}

func TestWaitFor(t *testing.T) {
	counter := 0
	WaitFor(t, func() bool {
		counter++
		return counter >= 3
	}, 5*time.Second)

	if counter < 3 {
		t.Errorf("counter = %d, want >= 3", counter)
	}
}

func TestWriteFile(t *testing.T) {
	dir := TempDir(t)
	path := WriteFile(t, dir, "test.txt", "hello")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want hello", string(data))
	}
}
