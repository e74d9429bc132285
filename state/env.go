// Package state holds the program environment shared by commands: loaded
// configuration, debug report, logger, knowledge tables and manifest store.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"atomcss/config"
	"atomcss/manifest"
	"atomcss/tables"
)

type envKey struct{}

// LocalEnv is created before command line is parsed and carried in context
// through every command. Cfg, Rpt and Log are set by the program setup,
// Tables and Store by Open.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	Tables *tables.Tables
	Store  manifest.Store

	start         time.Time
	restoreStdLog func()
}

// EnvFromContext returns environment stored by ContextWithEnv, panics when
// there is none.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(envKey{}).(*LocalEnv)
	if !ok {
		panic("program environment is missing from context")
	}
	return env
}

// ContextWithEnv returns ctx carrying fresh environment.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

// Uptime is time since environment was created.
func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Logger returns named child of program logger. Before logging is set up
// it discards everything.
func (e *LocalEnv) Logger(name string) *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log.Named(name)
}

// RedirectStdLog sends output of standard library logger to program logger
// until RestoreStdLog is called.
func (e *LocalEnv) RedirectStdLog() {
	if e.Log != nil {
		e.restoreStdLog = zap.RedirectStdLog(e.Log)
	}
}

// RestoreStdLog flushes program logger and undoes RedirectStdLog.
func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}
