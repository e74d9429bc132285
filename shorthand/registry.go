package shorthand

import (
	"fmt"
	"slices"
	"strings"

	"atomcss/css"
)

// expandFunc distributes components of a shorthand value over its
// longhands. Result has exactly one item per longhand, empty item means
// the component is absent.
type expandFunc func(value string, longhands []string) ([]string, error)

// registry binds expansion kinds used by the tables to functions.
var registry = map[string]expandFunc{
	"box":    expandBox,
	"pair":   expandPair,
	"radius": expandRadius,
	"border": expandBorder,
	"same":   expandSame,
}

// expandBox handles box model distribution:
//   - 1 value: all sides
//   - 2 values: top/bottom, left/right
//   - 3 values: top, left/right, bottom
//   - 4 values: top, right, bottom, left
func expandBox(value string, longhands []string) ([]string, error) {
	parts := css.Split(value)
	if len(longhands) != 4 {
		return nil, fmt.Errorf("box expansion needs 4 longhands, got %d", len(longhands))
	}
	return distribute(parts, value)
}

func distribute(parts []string, raw string) ([]string, error) {
	switch len(parts) {
	case 1:
		return []string{parts[0], parts[0], parts[0], parts[0]}, nil
	case 2:
		return []string{parts[0], parts[1], parts[0], parts[1]}, nil
	case 3:
		return []string{parts[0], parts[1], parts[2], parts[1]}, nil
	case 4:
		return parts, nil
	default:
		return nil, fmt.Errorf("invalid shorthand value '%s'", raw)
	}
}

func expandPair(value string, longhands []string) ([]string, error) {
	parts := css.Split(value)
	if len(longhands) != 2 {
		return nil, fmt.Errorf("pair expansion needs 2 longhands, got %d", len(longhands))
	}
	switch len(parts) {
	case 1:
		return []string{parts[0], parts[0]}, nil
	case 2:
		return parts, nil
	default:
		return nil, fmt.Errorf("invalid shorthand value '%s'", value)
	}
}

// expandRadius handles "h1 h2 h3 h4 / v1 v2 v3 v4" corner radii, corner
// order follows box order starting from top-left.
func expandRadius(value string, longhands []string) ([]string, error) {
	if len(longhands) != 4 {
		return nil, fmt.Errorf("radius expansion needs 4 longhands, got %d", len(longhands))
	}
	parts := css.Split(value)
	slash := slices.Index(parts, "/")
	if slash < 0 {
		return distribute(parts, value)
	}

	h, err := distribute(parts[:slash], value)
	if err != nil {
		return nil, err
	}
	v, err := distribute(parts[slash+1:], value)
	if err != nil {
		return nil, err
	}
	out := make([]string, 4)
	for i := range out {
		out[i] = h[i] + " " + v[i]
	}
	return out, nil
}

var (
	borderStyles = []string{"none", "hidden", "dotted", "dashed", "solid", "double", "groove", "ridge", "inset", "outset", "auto"}
	borderWidths = []string{"thin", "medium", "thick"}
)

// expandBorder classifies tokens into width, style and color.
func expandBorder(value string, longhands []string) ([]string, error) {
	if len(longhands) != 3 {
		return nil, fmt.Errorf("border expansion needs 3 longhands, got %d", len(longhands))
	}
	parts := css.Split(value)
	if len(parts) == 0 || len(parts) > 3 {
		return nil, fmt.Errorf("invalid shorthand value '%s'", value)
	}

	out := make([]string, 3)
	for _, p := range parts {
		idx := 2
		lp := strings.ToLower(p)
		switch {
		case slices.Contains(borderStyles, lp):
			idx = 1
		case slices.Contains(borderWidths, lp) || isLength(p):
			idx = 0
		}
		if len(out[idx]) > 0 {
			return nil, fmt.Errorf("ambiguous shorthand value '%s'", value)
		}
		out[idx] = p
	}
	return out, nil
}

func isLength(s string) bool {
	if len(s) == 0 {
		return false
	}
	c := s[0]
	if c == '-' || c == '+' || c == '.' {
		if len(s) == 1 {
			return false
		}
		c = s[1]
	}
	return (c >= '0' && c <= '9') || c == '.' || strings.HasPrefix(s, "calc(")
}

func expandSame(value string, longhands []string) ([]string, error) {
	out := make([]string, len(longhands))
	for i := range out {
		out[i] = value
	}
	return out, nil
}
