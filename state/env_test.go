package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"atomcss/config"
	"atomcss/manifest"
	"atomcss/style"
)

func TestContextWithEnv(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	if ctx == nil {
		t.Fatal("ContextWithEnv() returned nil")
	}

	env := EnvFromContext(ctx)
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}

	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
}

func TestEnvFromContext(t *testing.T) {
	t.Run("valid context", func(t *testing.T) {
		ctx := ContextWithEnv(context.Background())
		env := EnvFromContext(ctx)

		if env == nil {
			t.Error("Expected non-nil environment")
		}
	})

	t.Run("panic on missing env", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic when env not in context")
			}
		}()

		// Use plain context without env
		EnvFromContext(context.Background())
	})
}

func TestLocalEnv_Uptime(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	env := EnvFromContext(ctx)

	time.Sleep(10 * time.Millisecond)
	uptime := env.Uptime()

	if uptime < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", uptime)
	}
	if uptime > 1*time.Second {
		t.Errorf("Uptime() = %v, unexpectedly large", uptime)
	}
}

func TestLocalEnv_RedirectStdLog(t *testing.T) {
	t.Run("with logger", func(t *testing.T) {
		env := &LocalEnv{
			Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
		}

		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Error("Expected restoreStdLog to be set")
		}

		env.RestoreStdLog()
	})

	t.Run("without logger", func(t *testing.T) {
		env := &LocalEnv{
			Log: nil,
		}

		// Should not panic
		env.RedirectStdLog()
		if env.restoreStdLog != nil {
			t.Error("Expected restoreStdLog to remain nil")
		}
	})
}

func TestLocalEnv_RestoreStdLog(t *testing.T) {
	t.Run("with redirect", func(t *testing.T) {
		env := &LocalEnv{
			Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
		}

		env.RedirectStdLog()
		// Should not panic
		env.RestoreStdLog()
	})

	t.Run("without redirect", func(t *testing.T) {
		env := &LocalEnv{
			Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
		}

		// Should not panic even without redirect
		env.RestoreStdLog()
	})

	t.Run("nil logger", func(t *testing.T) {
		env := &LocalEnv{
			Log: nil,
		}

		// Should not panic
		env.RestoreStdLog()
	})
}

func TestLocalEnv_RedirectAndRestore(t *testing.T) {
	env := &LocalEnv{
		Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
	}

	// Test multiple redirect/restore cycles
	for i := 0; i < 3; i++ {
		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Errorf("Iteration %d: restoreStdLog not set", i)
		}
		env.RestoreStdLog()
	}
}

func TestLocalEnv_UptimeAccuracy(t *testing.T) {
	env := &LocalEnv{
		start: time.Now(),
	}

	delays := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		15 * time.Millisecond,
	}

	for _, delay := range delays {
		time.Sleep(delay)
		uptime := env.Uptime()
		if uptime < delay {
			t.Errorf("After %v delay, uptime %v is too small", delay, uptime)
		}
	}
}

func TestEnvKey(t *testing.T) {
	// Verify that envKey is a unique type
	var key envKey
	ctx := context.WithValue(context.Background(), key, &LocalEnv{start: time.Now()})

	val := ctx.Value(key)
	if val == nil {
		t.Error("Failed to retrieve value with envKey")
	}

	if _, ok := val.(*LocalEnv); !ok {
		t.Error("Retrieved value is not *LocalEnv")
	}
}

func TestLocalEnv_Integration(t *testing.T) {
	// Simulate a typical usage pattern
	ctx := ContextWithEnv(context.Background())
	env := EnvFromContext(ctx)

	// Set up environment
	env.Cfg = &config.Config{Version: 1}
	env.Log = zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	env.Rpt = nil

	// Redirect logs
	env.RedirectStdLog()

	// Simulate some work
	time.Sleep(5 * time.Millisecond)

	// Check uptime
	if env.Uptime() < 5*time.Millisecond {
		t.Error("Uptime too small")
	}

	// Restore logs
	env.RestoreStdLog()

	// Verify all fields are accessible
	if env.Cfg == nil || env.Log == nil {
		t.Error("Environment not properly initialized")
	}
}

func openEnv(t *testing.T, cfg *config.Config) *LocalEnv {
	t.Helper()
	env := EnvFromContext(ContextWithEnv(context.Background()))
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)
	if err := env.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { env.Close() })
	return env
}

func TestLocalEnv_Open(t *testing.T) {
	t.Run("memory manifest", func(t *testing.T) {
		cfg, err := config.LoadConfiguration("")
		if err != nil {
			t.Fatalf("LoadConfiguration() error = %v", err)
		}
		env := openEnv(t, cfg)
		if env.Tables == nil {
			t.Error("Expected tables to be loaded")
		}
		if _, ok := env.Store.(*manifest.MemoryStore); !ok {
			t.Errorf("Expected in-memory store, got %T", env.Store)
		}
	})

	t.Run("sqlite manifest", func(t *testing.T) {
		cfg, err := config.LoadConfiguration("")
		if err != nil {
			t.Fatalf("LoadConfiguration() error = %v", err)
		}
		cfg.Manifest.Path = filepath.Join(t.TempDir(), "manifest.db")
		env := openEnv(t, cfg)
		if _, ok := env.Store.(*manifest.SQLiteStore); !ok {
			t.Errorf("Expected sqlite store, got %T", env.Store)
		}
		if err := env.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
		if _, err := os.Stat(cfg.Manifest.Path); err != nil {
			t.Errorf("Manifest file was not created: %v", err)
		}
	})

	t.Run("missing configuration", func(t *testing.T) {
		env := &LocalEnv{Log: zaptest.NewLogger(t)}
		if err := env.Open(); err == nil {
			t.Error("Expected error without configuration")
		}
	})

	t.Run("bad tables", func(t *testing.T) {
		cfg, err := config.LoadConfiguration("")
		if err != nil {
			t.Fatalf("LoadConfiguration() error = %v", err)
		}
		cfg.Compiler.TablesPath = filepath.Join(t.TempDir(), "missing.yaml")
		env := &LocalEnv{Cfg: cfg, Log: zaptest.NewLogger(t)}
		if err := env.Open(); err == nil {
			t.Error("Expected error for missing tables file")
		}
	})
}

func TestLocalEnv_CompileAndRender(t *testing.T) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	env := openEnv(t, cfg)

	c, err := env.Compiler()
	if err != nil {
		t.Fatalf("Compiler() error = %v", err)
	}
	m, err := style.DecodeModule([]byte(`{"module": "app", "rules": {"root": {"display": "flex"}}}`))
	if err != nil {
		t.Fatalf("DecodeModule() error = %v", err)
	}
	if _, err := c.CompileModule(m); err != nil {
		t.Fatalf("CompileModule() error = %v", err)
	}

	opts := env.RenderOptions()
	if opts.Tables != env.Tables || opts.Separator != cfg.Compiler.RTLSeparator {
		t.Errorf("RenderOptions() = %+v", opts)
	}
}

func TestLocalEnv_Logger(t *testing.T) {
	var env LocalEnv
	if log := env.Logger("compile"); log == nil {
		t.Fatal("Logger() returned nil without program logger")
	}

	core, logs := observer.New(zap.DebugLevel)
	env.Log = zap.New(core)
	env.Logger("compile").Info("hello")
	entries := logs.All()
	if len(entries) != 1 || entries[0].LoggerName != "compile" {
		t.Errorf("Logger() entries = %+v, want one entry of logger 'compile'", entries)
	}
}
