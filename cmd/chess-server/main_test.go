package main

import (
	"testing"

	"chessgame/internal/engine"
	"chessgame/internal/testutil"
)

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags(nil)
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, cfg, Config{
		APIHost:       "localhost",
		APIPort:       8080,
		EnginePath:    engine.DefaultPath,
		EngineWorkers: 2,
	})
	testutil.AssertEqual(t, cfg.Addr(), "localhost:8080")

	cfg, err = parseFlags([]string{"-api-host", "0.0.0.0", "-api-port", "9000", "-dev", "-engine-workers", "4"})
	testutil.RequireNoError(t, err)
	testutil.AssertTrue(t, cfg.Dev)
	testutil.AssertEqual(t, cfg.Addr(), "0.0.0.0:9000")
	testutil.AssertEqual(t, cfg.EngineWorkers, 4)

	cfg, err = parseFlags([]string{"-pid", "/tmp/chess.pid", "-pid-lock"})
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, cfg.PIDFile, "/tmp/chess.pid")
	testutil.AssertTrue(t, cfg.PIDLock)
}

func TestParseFlagsRejectsInvalid(t *testing.T) {
	tests := [][]string{
		{"-api-port", "0"},
		{"-api-port", "70000"},
		{"-api-host", ""},
		{"-engine", ""},
		{"-engine-workers", "0"},
		{"-no-such-flag"},
		{"-pid-lock"},
	}
	for _, args := range tests {
		if _, err := parseFlags(args); err == nil {
			t.Errorf("parseFlags(%v) succeeded, want error", args)
		}
	}
}
