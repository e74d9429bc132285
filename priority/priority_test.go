package priority

import (
	"testing"

	"atomcss/tables"
)

func TestOf(t *testing.T) {
	a := New(tables.MustDefault())

	tests := []struct {
		name     string
		property string
		pseudos  []string
		element  string
		atRules  []string
		want     int
	}{
		{"custom property", "--fg", nil, "", nil, 1},
		{"shorthand of shorthands", "margin", nil, "", nil, 1000},
		{"shorthand of longhands", "flex", nil, "", nil, 2000},
		{"logical longhand", "color", nil, "", nil, 3000},
		{"physical longhand", "margin-top", nil, "", nil, 4000},
		{"hover", "color", []string{":hover"}, "", nil, 3130},
		{"two pseudo classes", "color", []string{":focus", ":hover"}, "", nil, 3280},
		{"functional", "color", []string{":nth-child(2n)"}, "", nil, 3060},
		{"unknown pseudo", "color", []string{":popover-open"}, "", nil, 3040},
		{"pseudo element", "content", nil, "::after", nil, 8000},
		{"media", "color", nil, "", []string{"@media (min-width: 800px)"}, 3200},
		{"nested at-rules", "color", []string{":hover"}, "", []string{"@supports (display: grid)", "@media print"}, 3360},
		{"container", "color", nil, "", []string{"@container (min-width: 1px)"}, 3300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Of(tt.property, tt.pseudos, tt.element, tt.atRules); got != tt.want {
				t.Errorf("Of() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBand(t *testing.T) {
	tests := []struct{ p, want int }{{1, 0}, {999, 0}, {1000, 1}, {3130, 3}, {8000, 8}}
	for _, tt := range tests {
		if got := Band(tt.p); got != tt.want {
			t.Errorf("Band(%d) = %d, want %d", tt.p, got, tt.want)
		}
	}
}
