// Package config loads the optional engine settings file: a small TOML
// document carrying operator defaults for the endpoint and the telnet
// reboot-aware reopen window, so every invocation doesn't have to pass
// --server/--port on the command line. It is entirely separate from the
// YAML test description (internal/testdesc): this file never names
// markers, triggers, or sequences.
package config

// Config holds the engine-level settings an operator may want to pin
// for a given lab rig rather than repeat on every invocation.
type Config struct {
	Server        string  `toml:"server"`
	Port          int     `toml:"port"`
	SleepSockWait float64 `toml:"sleep_sock_wait"`
}

// Default values, mirroring the CLI flag defaults of spec §6.2 and the
// link manager's reboot-aware reopen window of §4.1.
const (
	DefaultServer        = "localhost"
	DefaultPort          = 3000
	DefaultSleepSockWait = 30.0
)

// DefaultConfigTOML is the sample settings file written by the CLI's
// init subcommand.
const DefaultConfigTOML = `# overwatcher engine settings
# CLI flags (--server, --port) always override these values.

server = "localhost"
port = 3000

# Quiet window the link manager waits out, in seconds, before
# reconnecting after a telnet IGNORE_STATES-triggered reopen (§4.1).
sleep_sock_wait = 30.0
`
