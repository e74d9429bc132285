package build

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"atomcss/config"
	"atomcss/manifest"
	"atomcss/resolve"
	"atomcss/state"
	"atomcss/style"
)

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
}

const (
	tokensModule = `{
	// shared tokens
	"module": "tokens",
	"vars": {"colors": {"fg": "black"}},
	"rules": {"base": {"color": "black", "margin": 0}}
}`
	appModule = `{
	"module": "app",
	"rules": {
		"button": [
			{"include": {"module": "tokens", "rule": "base"}},
			{"paddingInlineStart": 4, "color": {"default": "red", ":hover": "blue"}}
		]
	},
	"themes": {"dark": {"vars": "tokens.colors", "values": {"fg": "white"}}}
}`
	pageModule = `{
	"module": "page",
	"rules": {"title": {"fontSize": "2rem"}}
}`
)

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ui", "app.jsonc"), appModule)
	writeFile(t, filepath.Join(dir, "tokens.json"), tokensModule)
	writeFile(t, filepath.Join(dir, "page.jsonc"), pageModule)
	writeFile(t, filepath.Join(dir, "README.md"), "not a module")
	return dir
}

func TestFindModules(t *testing.T) {
	dir := writeSample(t)
	log := zaptest.NewLogger(t)

	inputs, err := findModules(context.Background(), []string{dir, filepath.Join(dir, "page.jsonc")}, log)
	if err != nil {
		t.Fatalf("findModules() error = %v", err)
	}
	var files []string
	for _, in := range inputs {
		files = append(files, in.name)
	}
	want := []string{
		filepath.Join(dir, "page.jsonc"),
		filepath.Join(dir, "tokens.json"),
		filepath.Join(dir, "ui", "app.jsonc"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("findModules() = %v, want %v", files, want)
	}

	if _, err := findModules(context.Background(), []string{filepath.Join(dir, "missing")}, log); err == nil {
		t.Error("findModules() expected error for missing source")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := findModules(ctx, []string{dir}, log); !errors.Is(err, context.Canceled) {
		t.Errorf("findModules() error = %v, want context.Canceled", err)
	}
}

func TestLoadModulesDuplicate(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")
	writeFile(t, a, pageModule)
	writeFile(t, b, pageModule)

	_, err := loadModules([]input{{name: a}, {name: b}})
	if err == nil || !strings.Contains(err.Error(), "declared in both") {
		t.Errorf("loadModules() error = %v", err)
	}
}

func TestFindModulesArchive(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "vendor", "tokens.zip")
	if err := os.MkdirAll(filepath.Dir(bundle), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(bundle)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, data := range map[string]string{"styles/tokens.json": tokensModule, "LICENSE": "MIT"} {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(data)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
	writeFile(t, filepath.Join(dir, "app.jsonc"), appModule)

	for _, src := range []string{dir, bundle} {
		inputs, err := findModules(context.Background(), []string{src}, zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("findModules(%s) error = %v", src, err)
		}
		mods, err := loadModules(inputs)
		if err != nil {
			t.Fatalf("loadModules() error = %v", err)
		}
		found := false
		for _, m := range mods {
			found = found || m.Name == "tokens"
		}
		if !found {
			t.Errorf("bundled module was not found in %s", src)
		}
	}
}

func module(name string, deps ...string) *style.Module {
	m := &style.Module{Name: name}
	for _, d := range deps {
		m.Rules = append(m.Rules, style.RuleSource{
			Module: name,
			Name:   "r" + d,
			Parts:  []style.Part{{Include: &style.Ref{Module: d, Rule: "x"}}},
		})
	}
	return m
}

func names(lvls [][]*style.Module) [][]string {
	var out [][]string
	for _, l := range lvls {
		var n []string
		for _, m := range l {
			n = append(n, m.Name)
		}
		out = append(out, n)
	}
	return out
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		mods    []*style.Module
		want    [][]string
		wantErr bool
	}{
		{
			name: "independent",
			mods: []*style.Module{module("a"), module("b")},
			want: [][]string{{"a", "b"}},
		},
		{
			name: "chain",
			mods: []*style.Module{module("c", "b"), module("b", "a"), module("a")},
			want: [][]string{{"a"}, {"b"}, {"c"}},
		},
		{
			name: "diamond",
			mods: []*style.Module{module("d", "b", "c"), module("b", "a"), module("c", "a"), module("a")},
			want: [][]string{{"a"}, {"b", "c"}, {"d"}},
		},
		{
			name: "external dependency",
			mods: []*style.Module{module("a", "vendor")},
			want: [][]string{{"a"}},
		},
		{
			name:    "cycle",
			mods:    []*style.Module{module("a", "b"), module("b", "a"), module("c")},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := levels(tt.mods)
			if (err != nil) != tt.wantErr {
				t.Fatalf("levels() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(names(got), tt.want) {
				t.Errorf("levels() = %v, want %v", names(got), tt.want)
			}
		})
	}
}

func TestCompileSources(t *testing.T) {
	ctx, env := setupTestEnv(t)
	if err := env.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer env.Close()

	dir := writeSample(t)
	if err := compileSources(ctx, env, []string{dir}, env.Log); err != nil {
		t.Fatalf("compileSources() error = %v", err)
	}

	r, ok, err := env.Store.Rule("app.button")
	if err != nil || !ok {
		t.Fatalf("Rule(app.button) = %v, %v", ok, err)
	}
	cm := r.ClassMap()
	for _, key := range []string{"color", "margin-top", "padding-inline-start"} {
		if len(cm[key]) == 0 {
			t.Errorf("class map has no %q: %v", key, cm)
		}
	}
	if !strings.Contains(cm["color"], " ") {
		t.Errorf("conditional color must produce two classes, got %q", cm["color"])
	}

	// second pass over the same sources is a no-op
	if err := compileSources(ctx, env, []string{dir}, env.Log); err != nil {
		t.Fatalf("compileSources() second pass error = %v", err)
	}
}

func TestCompileSourcesPartialFailure(t *testing.T) {
	ctx, env := setupTestEnv(t)
	if err := env.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer env.Close()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.json"), pageModule)
	writeFile(t, filepath.Join(dir, "broken.json"), `{
		"module": "broken",
		"rules": {"r": [{"include": {"module": "nowhere", "rule": "x"}}]}
	}`)

	err := compileSources(ctx, env, []string{dir}, env.Log)
	var missing *resolve.MissingIncludeError
	if !errors.As(err, &missing) {
		t.Fatalf("compileSources() error = %v, want MissingIncludeError", err)
	}
	if _, ok, _ := env.Store.Rule("page.title"); !ok {
		t.Error("independent module must be committed")
	}
	if _, ok, _ := env.Store.Rule("broken.r"); ok {
		t.Error("failed module must not be committed")
	}
}

func TestRenderTo(t *testing.T) {
	ctx, env := setupTestEnv(t)
	if err := env.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer env.Close()

	dir := writeSample(t)
	if err := compileSources(ctx, env, []string{dir}, env.Log); err != nil {
		t.Fatalf("compileSources() error = %v", err)
	}

	usage := filepath.Join(dir, "usage.jsonc")
	writeFile(t, usage, `["page.title"]`)

	tests := []struct {
		name     string
		usage    string
		layers   bool
		contains []string
		absent   []string
	}{
		{
			name:     "everything",
			contains: []string{":root{", "padding-left:4px", `html[dir="rtl"] `, "/* rtl */", "font-size:2rem"},
		},
		{
			name:     "used only",
			usage:    usage,
			contains: []string{"font-size:2rem", ":root{"},
			absent:   []string{"padding-left", "/* rtl */"},
		},
		{
			name:     "layers",
			layers:   true,
			contains: []string{"@layer priority", "padding-left:4px"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), "out.css")
			if err := renderTo(env, dst, tt.usage, tt.layers, env.Log); err != nil {
				t.Fatalf("renderTo() error = %v", err)
			}
			data, err := os.ReadFile(dst)
			if err != nil {
				t.Fatal(err)
			}
			for _, s := range tt.contains {
				if !bytes.Contains(data, []byte(s)) {
					t.Errorf("output has no %q:\n%s", s, data)
				}
			}
			for _, s := range tt.absent {
				if bytes.Contains(data, []byte(s)) {
					t.Errorf("output must not have %q:\n%s", s, data)
				}
			}
		})
	}
}

func TestListManifest(t *testing.T) {
	store := manifest.NewMemoryStore()
	rules := []*manifest.Rule{
		{Key: "m.r10", Module: "m", Name: "r10", Classes: []style.AtomicClass{{Property: "color", ClassName: "xa", Value: "red", Priority: 3000}}},
		{Key: "m.r2", Module: "m", Name: "r2", Classes: []style.AtomicClass{{Property: "color", ClassName: "xb", Value: "blue", Priority: 3000}}},
	}
	if err := store.Commit(rules, nil); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := listManifest(store, nil, &buf); err != nil {
		t.Fatalf("listManifest() error = %v", err)
	}
	out := buf.String()
	if i, j := strings.Index(out, "key: m.r2"), strings.Index(out, "key: m.r10"); i < 0 || j < 0 || i > j {
		t.Errorf("rules must be listed in natural order:\n%s", out)
	}

	buf.Reset()
	if err := listManifest(store, []string{"m.r10"}, &buf); err != nil {
		t.Fatalf("listManifest() error = %v", err)
	}
	if strings.Contains(buf.String(), "m.r2") {
		t.Errorf("unexpected rule in listing:\n%s", buf.String())
	}

	if err := listManifest(store, []string{"m.missing"}, &buf); err == nil {
		t.Error("listManifest() expected error for unknown rule")
	}
}

func TestRunCommand(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Cfg.Manifest.Path = filepath.Join(t.TempDir(), "manifest.db")

	dir := writeSample(t)
	dst := filepath.Join(t.TempDir(), "styles.css")

	cmd := &cli.Command{
		Name:   "build",
		Action: Run,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output"},
			&cli.StringFlag{Name: "usage"},
			&cli.BoolFlag{Name: "layers"},
		},
	}
	if err := cmd.Run(ctx, []string{"build", "--output", dst, dir}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("font-size:2rem")) {
		t.Errorf("unexpected output:\n%s", data)
	}

	// manifest survives the run
	store, err := manifest.OpenSQLite(env.Cfg.Manifest.Path, env.Log)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer store.Close()
	if _, ok, err := store.Rule("app.button"); err != nil || !ok {
		t.Errorf("Rule(app.button) = %v, %v", ok, err)
	}
}
