package config

// Specification of shorthand properties handling.
type ShorthandStrategy string

const (
	ShorthandStrategyExpand ShorthandStrategy = "expand"
	ShorthandStrategyKeep   ShorthandStrategy = "keep"
	ShorthandStrategyReject ShorthandStrategy = "reject"
)

// Specification of unknown property handling.
type ValidationLevel string

const (
	ValidationLevelIgnore ValidationLevel = "ignore"
	ValidationLevelWarn   ValidationLevel = "warn"
	ValidationLevelError  ValidationLevel = "error"
)

// ShorthandStrategyNames returns supported strategies in order of
// preference.
func ShorthandStrategyNames() []string {
	return []string{
		string(ShorthandStrategyExpand),
		string(ShorthandStrategyKeep),
		string(ShorthandStrategyReject),
	}
}

// IsValid reports whether strategy is supported.
func (s ShorthandStrategy) IsValid() bool {
	switch s {
	case ShorthandStrategyExpand, ShorthandStrategyKeep, ShorthandStrategyReject:
		return true
	}
	return false
}

// IsFatal reports whether unknown property stops compilation.
func (l ValidationLevel) IsFatal() bool {
	return l == ValidationLevelError
}
