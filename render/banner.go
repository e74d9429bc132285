package render

import (
	"bytes"
	"fmt"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"atomcss/misc"
)

// BannerValues are fields available to the banner template.
type BannerValues struct {
	App     string
	Version string
	Classes int
	Defs    int
	Layers  bool
}

// expandBanner executes banner template. Delimiters differ from the default
// ones so banner survives configuration file processing.
func expandBanner(text string, values BannerValues) (string, error) {
	tmpl, err := template.New("banner").Delims("[[", "]]").Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return "", fmt.Errorf("unable to parse banner template: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand banner template: %w", err)
	}
	return buf.String(), nil
}

func bannerValues(classes, defs int, layers bool) BannerValues {
	return BannerValues{
		App:     misc.GetAppName(),
		Version: misc.GetVersion(),
		Classes: classes,
		Defs:    defs,
		Layers:  layers,
	}
}
