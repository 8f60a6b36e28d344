package config

import "testing"

func TestParseValidConfig(t *testing.T) {
	data := `
server = "rig-17.lab"
port = 4001
sleep_sock_wait = 45.0
`
	cfg, warnings, err := LoadBytes([]byte(data), "test.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) > 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if cfg.Server != "rig-17.lab" {
		t.Errorf("server = %q, want rig-17.lab", cfg.Server)
	}
	if cfg.Port != 4001 {
		t.Errorf("port = %d, want 4001", cfg.Port)
	}
	if cfg.SleepSockWait != 45.0 {
		t.Errorf("sleep_sock_wait = %v, want 45.0", cfg.SleepSockWait)
	}
}

func TestEmptyConfigGetsDefaults(t *testing.T) {
	cfg, _, err := LoadBytes([]byte(""), "empty.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server != DefaultServer {
		t.Errorf("default server = %q, want %q", cfg.Server, DefaultServer)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("default port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.SleepSockWait != DefaultSleepSockWait {
		t.Errorf("default sleep_sock_wait = %v, want %v", cfg.SleepSockWait, DefaultSleepSockWait)
	}
}

func TestUnknownKeyWarns(t *testing.T) {
	data := `
server = "localhost"
bogus_key = "oops"
`
	_, warnings, err := LoadBytes([]byte(data), "test.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
}

func TestInvalidPortRejected(t *testing.T) {
	data := `port = 70000`
	if _, _, err := LoadBytes([]byte(data), "test.toml"); err == nil {
		t.Fatal("expected validation error for out-of-range port")
	}
}

func TestNegativeSleepSockWaitRejected(t *testing.T) {
	data := `sleep_sock_wait = -1.0`
	if _, _, err := LoadBytes([]byte(data), "test.toml"); err == nil {
		t.Fatal("expected validation error for negative sleep_sock_wait")
	}
}
