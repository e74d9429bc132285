package state

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"atomcss/compiler"
	"atomcss/config"
	"atomcss/manifest"
	"atomcss/render"
	"atomcss/tables"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// Open loads knowledge tables and opens manifest store according to
// configuration. Without manifest path store lives in memory and is gone
// when program ends.
func (e *LocalEnv) Open() error {
	if e.Cfg == nil {
		return fmt.Errorf("configuration is not loaded")
	}

	log := e.Logger("env")

	var err error
	if path := e.Cfg.Compiler.TablesPath; len(path) > 0 {
		e.Tables, err = tables.Load(path)
		e.Rpt.Store(config.EntryName("tables", path), path)
	} else {
		e.Tables, err = tables.Default()
	}
	if err != nil {
		return fmt.Errorf("unable to load knowledge tables: %w", err)
	}

	if path := e.Cfg.Manifest.Path; len(path) > 0 {
		if e.Store, err = manifest.OpenSQLite(path, log); err != nil {
			return fmt.Errorf("unable to open manifest: %w", err)
		}
		log.Debug("Manifest opened", zap.String("path", path))
	} else {
		e.Store = manifest.NewMemoryStore()
		log.Debug("Using in-memory manifest")
	}
	return nil
}

// Close releases manifest store, when debugging a copy of the manifest
// ends up in the report.
func (e *LocalEnv) Close() error {
	if e.Store == nil {
		return nil
	}
	err := e.Store.Close()
	e.Store = nil
	if path := e.Cfg.Manifest.Path; err == nil && len(path) > 0 {
		if er := e.Rpt.StoreCopy("manifest/manifest.db", path); er != nil {
			e.Logger("env").Warn("Unable to store manifest copy in report", zap.Error(er))
		}
	}
	return err
}

// Compiler returns compiler configured for this environment.
func (e *LocalEnv) Compiler() (*compiler.Compiler, error) {
	return compiler.New(&e.Cfg.Compiler, e.Tables, e.Store, e.Log)
}

// RenderOptions returns render options configured for this environment.
func (e *LocalEnv) RenderOptions() render.Options {
	return render.OptionsFrom(&e.Cfg.Compiler, e.Tables)
}
