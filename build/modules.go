package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"atomcss/archive"
	"atomcss/compiler"
	"atomcss/style"
)

var moduleExts = []string{".json", ".jsonc"}

func isModuleFile(path string) bool {
	return slices.Contains(moduleExts, strings.ToLower(filepath.Ext(path)))
}

// input is a module file on disk or inside zip bundle.
type input struct {
	name string
	// archive is set for bundled modules, data is read when archive is
	// walked
	archive string
	data    []byte
}

func (in *input) read() ([]byte, error) {
	if len(in.archive) > 0 {
		return in.data, nil
	}
	return os.ReadFile(in.name)
}

// findModules expands sources into a list of module inputs. Directories are
// walked recursively, zip bundles are looked into, files given explicitly
// are taken as is.
func findModules(ctx context.Context, sources []string, log *zap.Logger) ([]input, error) {
	var inputs []input

	bundle := func(path string) error {
		return archive.Walk(path, isModuleFile, func(name string, data []byte) error {
			inputs = append(inputs, input{name: filepath.Join(path, filepath.FromSlash(name)), archive: path, data: data})
			return nil
		})
	}

	for _, src := range sources {
		fi, err := os.Stat(src)
		if err != nil {
			return nil, fmt.Errorf("input source was not found (%s): %w", src, err)
		}
		if !fi.IsDir() {
			if archive.IsArchive(src) {
				if err := bundle(src); err != nil {
					return nil, fmt.Errorf("unable to process archive (%s): %w", src, err)
				}
				continue
			}
			inputs = append(inputs, input{name: src})
			continue
		}

		count := len(inputs)
		err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err != nil {
				log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
				return nil
			}
			switch {
			case !d.Type().IsRegular():
			case archive.IsArchive(path):
				if err := bundle(path); err != nil {
					log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
				}
			case isModuleFile(path):
				inputs = append(inputs, input{name: path})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if count == len(inputs) {
			log.Debug("Nothing to process", zap.String("dir", src))
		}
	}

	sort.SliceStable(inputs, func(i, j int) bool { return natural.Less(inputs[i].name, inputs[j].name) })
	return slices.CompactFunc(inputs, func(a, b input) bool { return a.name == b.name }), nil
}

// loadModules reads module inputs, every module name must be unique.
func loadModules(inputs []input) ([]*style.Module, error) {
	var (
		mods  []*style.Module
		errs  error
		where = make(map[string]string, len(inputs))
	)
	for i := range inputs {
		in := &inputs[i]
		data, err := in.read()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reading %s: %w", in.name, err))
			continue
		}
		m, err := style.DecodeModule(data)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", in.name, err))
			continue
		}
		if prev, ok := where[m.Name]; ok {
			errs = multierr.Append(errs, fmt.Errorf("module '%s' is declared in both '%s' and '%s'", m.Name, prev, in.name))
			continue
		}
		where[m.Name] = in.name
		mods = append(mods, m)
	}
	return mods, errs
}

// levels orders modules so every module comes after modules it includes
// from. Modules of the same level are independent of each other.
// Dependencies outside of the set are expected to be in the manifest
// already.
func levels(mods []*style.Module) ([][]*style.Module, error) {
	byName := make(map[string]*style.Module, len(mods))
	for _, m := range mods {
		byName[m.Name] = m
	}

	pending := make(map[string][]string, len(mods))
	for _, m := range mods {
		var deps []string
		for _, d := range m.Dependencies() {
			if _, ok := byName[d]; ok {
				deps = append(deps, d)
			}
		}
		pending[m.Name] = deps
	}

	var (
		out  [][]*style.Module
		done = make(map[string]bool, len(mods))
	)
	for len(done) < len(mods) {
		var level []*style.Module
		for _, m := range mods {
			if done[m.Name] {
				continue
			}
			ready := true
			for _, d := range pending[m.Name] {
				if !done[d] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, m)
			}
		}
		if len(level) == 0 {
			var stuck []string
			for _, m := range mods {
				if !done[m.Name] {
					stuck = append(stuck, m.Name)
				}
			}
			sort.Sort(natural.StringSlice(stuck))
			return nil, fmt.Errorf("modules include from each other: %s", strings.Join(stuck, ", "))
		}
		for _, m := range level {
			done[m.Name] = true
		}
		out = append(out, level)
	}
	return out, nil
}

// compileAll compiles modules level by level, modules of a level run
// concurrently. Failed module does not stop others, all errors are
// returned together.
func compileAll(ctx context.Context, c *compiler.Compiler, lvls [][]*style.Module, log *zap.Logger) (int, error) {
	var (
		mu       sync.Mutex
		errs     error
		compiled int
	)
	for i, level := range lvls {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for _, m := range level {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				unit, err := c.CompileModule(m)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Error("Unable to compile module", zap.String("module", m.Name), zap.Error(err))
					errs = multierr.Append(errs, err)
					return nil
				}
				compiled++
				log.Debug("Module compiled", zap.Int("level", i), zap.String("module", unit.Module), zap.Int("rules", len(unit.Rules)), zap.Int("defs", len(unit.Defs)))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return compiled, err
		}
	}
	return compiled, errs
}
