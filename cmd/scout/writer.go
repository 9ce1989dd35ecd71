package main

import (
	"os"

	"golang.org/x/term"

	"droneops-scout/internal/config"
	"droneops-scout/internal/mission"
)

// writers is the set of sinks chosen for a command.
type writers struct {
	mission.Writer
	// tui is set when the terminal UI owns stdout; logs must not go there.
	tui     bool
	cleanup func()
}

// newWriters sets up mission writers based on flags and env vars.
// GREPTIMEDB_ENDPOINT selects GreptimeDB, otherwise rows go to STDOUT: the
// TUI on a terminal, JSON lines when piped. MQTT_BROKER adds an MQTT
// publisher and logFile adds a replayable JSONL log.
func newWriters(cfg *config.MissionConfig, printOnly bool, logFile string) (*writers, error) {
	var ws []mission.Writer
	var closers []func()
	out := &writers{}

	base, tui, err := baseWriter(cfg, printOnly)
	if err != nil {
		return nil, err
	}
	ws = append(ws, base)
	out.tui = tui

	if broker := os.Getenv("MQTT_BROKER"); broker != "" && !printOnly {
		mw, err := mission.NewMQTTWriter(broker, os.Getenv("MQTT_CLIENT_ID"), os.Getenv("MQTT_TOPIC_PREFIX"))
		if err != nil {
			return nil, err
		}
		ws = append(ws, mw)
	}
	if logFile != "" {
		fw, err := mission.NewFileWriter(logFile)
		if err != nil {
			return nil, err
		}
		ws = append(ws, fw)
	}

	if len(ws) == 1 {
		out.Writer = base
		if c, ok := base.(interface{ Close() error }); ok {
			closers = append(closers, func() { c.Close() })
		}
	} else {
		mw := mission.NewMultiWriter(ws...)
		out.Writer = mw
		closers = append(closers, func() { mw.Close() })
	}
	out.cleanup = func() {
		for _, c := range closers {
			c()
		}
	}
	return out, nil
}

// baseWriter chooses the primary writer based on the printOnly flag and env vars.
func baseWriter(cfg *config.MissionConfig, printOnly bool) (mission.Writer, bool, error) {
	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		if !printOnly && term.IsTerminal(int(os.Stdout.Fd())) {
			return mission.NewTUIWriter(cfg), true, nil
		}
		return mission.NewJSONStdoutWriter(), false, nil
	}
	db := os.Getenv("GREPTIMEDB_DATABASE")
	if db == "" {
		db = "public"
	}
	w, err := mission.NewGreptimeDBWriter(os.Getenv("GREPTIMEDB_ENDPOINT"), db)
	if err != nil {
		return nil, false, err
	}
	return w, false, nil
}
