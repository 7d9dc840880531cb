package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lumen-home/lumen-core/internal/api"
	"github.com/lumen-home/lumen-core/internal/infrastructure/logging"
)

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("LUMEN_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestGetConfigPath_Default verifies the default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("LUMEN_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies the environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("LUMEN_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestTelemetryFanout_NilSinks verifies the fan-out tolerates missing sinks.
func TestTelemetryFanout_NilSinks(t *testing.T) {
	fanout := &telemetryFanout{}

	fanout.Dispatched("lights.off", "{35} {22} {*} {*} {*}", time.Now())
	fanout.ChannelSwitched("porch", true, "schedule")
	fanout.ChannelReported("porch", "on")
	fanout.SolarTimes("2026-08-26", time.Now(), time.Now())
}

// TestTelemetryFanout_ConcurrentReports verifies the fan-out is safe to
// call from MQTT handler goroutines while the scheduler dispatches. The
// hub is wired at construction, before any goroutine touches the fan-out,
// matching the startup order in run().
func TestTelemetryFanout_ConcurrentReports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := api.NewHub(logging.Default())
	go hub.Run(ctx)

	fanout := &telemetryFanout{hub: hub}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				fanout.ChannelReported("porch", "on")
				fanout.Dispatched("lights.off", "{35} {22} {*} {*} {*}", time.Now())
			}
		}()
	}
	wg.Wait()
}
