// Package build implements program commands: compiling modules into the
// manifest and rendering the manifest into a stylesheet.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"atomcss/config"
	"atomcss/css"
	"atomcss/manifest"
	"atomcss/render"
	"atomcss/state"
)

// Compile compiles module files and directories given as arguments into the
// manifest.
func Compile(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Logger("compile")

	if cmd.Args().Len() == 0 {
		return errors.New("no input source has been specified")
	}
	if err := env.Open(); err != nil {
		return err
	}
	defer env.Close()

	return compileSources(ctx, env, cmd.Args().Slice(), log)
}

// Render writes stylesheet for everything in the manifest.
func Render(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Logger("render")

	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	if err := env.Open(); err != nil {
		return err
	}
	defer env.Close()

	return renderTo(env, cmd.Args().Get(0), cmd.String("usage"), cmd.Bool("layers"), log)
}

// Run compiles sources and renders result in one go, useful with in-memory
// manifest.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Logger("build")

	if cmd.Args().Len() == 0 {
		return errors.New("no input source has been specified")
	}
	dst := cmd.String("output")
	if len(dst) == 0 {
		return errors.New("no output has been specified")
	}
	if err := env.Open(); err != nil {
		return err
	}
	defer env.Close()

	if err := compileSources(ctx, env, cmd.Args().Slice(), log); err != nil {
		return err
	}
	return renderTo(env, dst, cmd.String("usage"), cmd.Bool("layers"), log)
}

// Manifest lists manifest contents as YAML.
func Manifest(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	if err := env.Open(); err != nil {
		return err
	}
	defer env.Close()

	return listManifest(env.Store, cmd.StringSlice("rule"), os.Stdout)
}

func compileSources(ctx context.Context, env *state.LocalEnv, sources []string, log *zap.Logger) error {
	inputs, err := findModules(ctx, sources, log)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		log.Warn("No modules found", zap.Strings("sources", sources))
		return nil
	}
	for _, in := range inputs {
		if len(in.archive) > 0 {
			env.Rpt.Store(config.EntryName("modules", in.archive), in.archive)
			continue
		}
		env.Rpt.Store(config.EntryName("modules", in.name), in.name)
	}

	mods, err := loadModules(inputs)
	if err != nil {
		return fmt.Errorf("unable to load modules: %w", err)
	}
	lvls, err := levels(mods)
	if err != nil {
		return err
	}

	c, err := env.Compiler()
	if err != nil {
		return err
	}

	log.Info("Compilation starting", zap.Int("modules", len(mods)), zap.Int("levels", len(lvls)))
	defer func(start time.Time) {
		log.Info("Compilation completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	n, err := compileAll(ctx, c, lvls, log)
	if err != nil {
		return fmt.Errorf("%d of %d modules failed: %w", len(mods)-n, len(mods), err)
	}
	return nil
}

func renderTo(env *state.LocalEnv, dst, usagePath string, layers bool, log *zap.Logger) error {
	var (
		usage render.Usage
		err   error
	)
	if len(usagePath) > 0 {
		if usage, err = render.LoadUsage(usagePath); err != nil {
			return err
		}
		env.Rpt.Store(config.EntryName("usage", usagePath), usagePath)
		log.Debug("Using usage record", zap.String("file", usagePath), zap.Int("rules", len(usage)))
	}

	opts := env.RenderOptions()
	opts.UseLayers = opts.UseLayers || layers

	text, err := render.Render(env.Store, usage, opts)
	if err != nil {
		return fmt.Errorf("unable to render stylesheet: %w", err)
	}
	stats, err := css.NewInspector(log).Inspect([]byte(text))
	if err != nil {
		env.Rpt.StoreData("output/broken.css", []byte(text))
		return fmt.Errorf("generated stylesheet is malformed: %w", err)
	}

	var out io.Writer = os.Stdout
	if len(dst) > 0 {
		f, err := os.Create(dst)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", dst, err)
		}
		defer f.Close()
		out = f
	} else {
		dst = "STDOUT"
	}
	if _, err := io.WriteString(out, text); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}

	log.Info("Stylesheet written",
		zap.String("file", dst),
		zap.Bool("layers", opts.UseLayers),
		zap.Int("rulesets", stats.Rulesets),
		zap.Int("declarations", stats.Declarations),
		zap.Int("at-rules", stats.AtRules))
	return nil
}

// listing is manifest view for output.
type listing struct {
	Rules []*manifest.Rule `yaml:"rules,omitempty"`
	Defs  []*manifest.Def  `yaml:"defs,omitempty"`
}

// listManifest writes requested rules (all when none requested) and all
// definitions.
func listManifest(store manifest.Store, keys []string, w io.Writer) error {
	var (
		l   listing
		err error
	)
	if len(keys) == 0 {
		if l.Rules, err = store.Rules(); err != nil {
			return err
		}
		if l.Defs, err = store.Defs(); err != nil {
			return err
		}
	} else {
		for _, k := range keys {
			r, ok, err := store.Rule(k)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("rule '%s' is not in the manifest", k)
			}
			l.Rules = append(l.Rules, r)
		}
	}
	sort.SliceStable(l.Rules, func(i, j int) bool { return natural.Less(l.Rules[i].Key, l.Rules[j].Key) })

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&l); err != nil {
		return fmt.Errorf("unable to write manifest listing: %w", err)
	}
	return enc.Close()
}
