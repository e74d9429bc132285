package manifest

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"atomcss/style"
)

// encMode is configured with Core Deterministic Encoding: same record always
// produces identical bytes, which makes upsert comparison a byte compare.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("manifest: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("manifest: CBOR decoder initialization failed: " + err.Error())
	}
}

const (
	valString uint8 = iota + 1
	valNumber
	valNull
	valFallbacks
	valConditional
	valBlock
)

type wireValue struct {
	Type     uint8        `cbor:"1,keyasint"`
	Str      string       `cbor:"2,keyasint,omitempty"`
	Num      float64      `cbor:"3,keyasint,omitempty"`
	Items    []wireValue  `cbor:"4,keyasint,omitempty"`
	Branches []wireBranch `cbor:"5,keyasint,omitempty"`
	Props    []wireProp   `cbor:"6,keyasint,omitempty"`
}

type wireBranch struct {
	Condition string    `cbor:"1,keyasint"`
	Value     wireValue `cbor:"2,keyasint"`
}

type wireProp struct {
	Name  string    `cbor:"1,keyasint"`
	Value wireValue `cbor:"2,keyasint"`
}

type wirePart struct {
	IncludeModule string     `cbor:"1,keyasint,omitempty"`
	IncludeRule   string     `cbor:"2,keyasint,omitempty"`
	Decl          []wireProp `cbor:"3,keyasint,omitempty"`
}

type wireRule struct {
	Key     string              `cbor:"1,keyasint"`
	Module  string              `cbor:"2,keyasint"`
	Name    string              `cbor:"3,keyasint"`
	Parts   []wirePart          `cbor:"4,keyasint,omitempty"`
	Classes []style.AtomicClass `cbor:"5,keyasint,omitempty"`
}

type wireDef struct {
	Kind     string            `cbor:"1,keyasint"`
	Key      string            `cbor:"2,keyasint"`
	Name     string            `cbor:"3,keyasint"`
	Vars     map[string]string `cbor:"4,keyasint,omitempty"`
	CSS      string            `cbor:"5,keyasint"`
	Priority int               `cbor:"6,keyasint"`
}

func toWireValue(v style.Value) (wireValue, error) {
	switch v := v.(type) {
	case style.String:
		return wireValue{Type: valString, Str: string(v)}, nil
	case style.Number:
		return wireValue{Type: valNumber, Num: float64(v)}, nil
	case style.Null:
		return wireValue{Type: valNull}, nil
	case style.Fallbacks:
		w := wireValue{Type: valFallbacks, Items: make([]wireValue, 0, len(v))}
		for _, item := range v {
			iw, err := toWireValue(item)
			if err != nil {
				return wireValue{}, err
			}
			w.Items = append(w.Items, iw)
		}
		return w, nil
	case style.Conditional:
		w := wireValue{Type: valConditional, Branches: make([]wireBranch, 0, len(v))}
		for _, b := range v {
			bw, err := toWireValue(b.Value)
			if err != nil {
				return wireValue{}, err
			}
			w.Branches = append(w.Branches, wireBranch{Condition: b.Condition, Value: bw})
		}
		return w, nil
	case style.Block:
		props, err := toWireDecl(style.Declaration(v))
		if err != nil {
			return wireValue{}, err
		}
		return wireValue{Type: valBlock, Props: props}, nil
	default:
		return wireValue{}, fmt.Errorf("unsupported value type %T", v)
	}
}

func fromWireValue(w wireValue) (style.Value, error) {
	switch w.Type {
	case valString:
		return style.String(w.Str), nil
	case valNumber:
		return style.Number(w.Num), nil
	case valNull:
		return style.Null{}, nil
	case valFallbacks:
		out := make(style.Fallbacks, 0, len(w.Items))
		for _, item := range w.Items {
			v, err := fromWireValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case valConditional:
		out := make(style.Conditional, 0, len(w.Branches))
		for _, b := range w.Branches {
			v, err := fromWireValue(b.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, style.Branch{Condition: b.Condition, Value: v})
		}
		return out, nil
	case valBlock:
		decl, err := fromWireDecl(w.Props)
		if err != nil {
			return nil, err
		}
		return style.Block(decl), nil
	default:
		return nil, fmt.Errorf("unknown value type %d", w.Type)
	}
}

func toWireDecl(d style.Declaration) ([]wireProp, error) {
	out := make([]wireProp, 0, len(d))
	for _, p := range d {
		w, err := toWireValue(p.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		out = append(out, wireProp{Name: p.Name, Value: w})
	}
	return out, nil
}

func fromWireDecl(props []wireProp) (style.Declaration, error) {
	out := make(style.Declaration, 0, len(props))
	for _, p := range props {
		v, err := fromWireValue(p.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		out = append(out, style.Prop{Name: p.Name, Value: v})
	}
	return out, nil
}

// EncodeRule returns deterministic bytes of a rule record.
func EncodeRule(r *Rule) ([]byte, error) {
	w := wireRule{Key: r.Key, Module: r.Module, Name: r.Name, Classes: r.Classes}
	for _, p := range r.Parts {
		var wp wirePart
		if p.Include != nil {
			wp.IncludeModule, wp.IncludeRule = p.Include.Module, p.Include.Rule
		} else {
			decl, err := toWireDecl(p.Decl)
			if err != nil {
				return nil, fmt.Errorf("rule '%s': %w", r.Key, err)
			}
			wp.Decl = decl
		}
		w.Parts = append(w.Parts, wp)
	}
	return encMode.Marshal(w)
}

// DecodeRule restores a rule record.
func DecodeRule(data []byte) (*Rule, error) {
	var w wireRule
	if err := decMode.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding rule: %w", err)
	}
	r := &Rule{Key: w.Key, Module: w.Module, Name: w.Name, Classes: w.Classes}
	for _, wp := range w.Parts {
		if len(wp.IncludeRule) > 0 {
			r.Parts = append(r.Parts, style.Part{Include: &style.Ref{Module: wp.IncludeModule, Rule: wp.IncludeRule}})
			continue
		}
		decl, err := fromWireDecl(wp.Decl)
		if err != nil {
			return nil, fmt.Errorf("decoding rule '%s': %w", w.Key, err)
		}
		r.Parts = append(r.Parts, style.Part{Decl: decl})
	}
	return r, nil
}

// EncodeDef returns deterministic bytes of a definition record.
func EncodeDef(d *Def) ([]byte, error) {
	return encMode.Marshal(wireDef{
		Kind:     string(d.Kind),
		Key:      d.Key,
		Name:     d.Name,
		Vars:     d.Vars,
		CSS:      d.CSS,
		Priority: d.Priority,
	})
}

// DecodeDef restores a definition record.
func DecodeDef(data []byte) (*Def, error) {
	var w wireDef
	if err := decMode.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding definition: %w", err)
	}
	return &Def{
		Kind:     Kind(w.Kind),
		Key:      w.Key,
		Name:     w.Name,
		Vars:     w.Vars,
		CSS:      w.CSS,
		Priority: w.Priority,
	}, nil
}
