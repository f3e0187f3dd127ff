package script

import (
	"fmt"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
)

// kwPrefix marks keyword strings produced by preprocessSource.
const kwPrefix = "__kw_"

// keyword returns the name of a preprocessed keyword.
func keyword(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// args is a parsed argument list: positional values plus keyword values
// stored in snake case. Builtins take keywords as they use them; whatever
// is left is an error.
type args struct {
	positional []zygo.Sexp
	kw         map[string]zygo.Sexp
	order      []string
}

func parseArgs(in []zygo.Sexp) *args {
	a := &args{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(in); i++ {
		name, ok := keyword(in[i])
		if !ok {
			a.positional = append(a.positional, in[i])
			continue
		}
		name = strings.ReplaceAll(name, "-", "_")
		if _, seen := a.kw[name]; !seen {
			a.order = append(a.order, name)
		}
		if i+1 < len(in) {
			a.kw[name] = in[i+1]
			i++
		} else {
			a.kw[name] = zygo.SexpNull
		}
	}
	return a
}

// take removes and returns keyword name.
func (a *args) take(name string) (zygo.Sexp, bool) {
	v, ok := a.kw[name]
	if ok {
		delete(a.kw, name)
	}
	return v, ok
}

// unknown reports keywords nobody took, in source order.
func (a *args) unknown() error {
	left := lo.FilterMap(a.order, func(name string, _ int) (string, bool) {
		_, ok := a.kw[name]
		return ":" + kebab(name), ok
	})
	if len(left) == 0 {
		return nil
	}
	return fmt.Errorf("unknown keyword %s", strings.Join(left, " "))
}

// name returns the leading positional string argument, if any.
func (a *args) name() (string, error) {
	if len(a.positional) == 0 {
		return "", nil
	}
	return toString(a.positional[0])
}

// ---------------------------------------------------------------------------
// Value extraction
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", describe(s))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %s", describe(s))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok && !strings.HasPrefix(str.S, kwPrefix) {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", describe(s))
}

func toBool(s zygo.Sexp) (bool, error) {
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %s", describe(s))
}

// toEnumName accepts :circle-extrusion or "circle_extrusion" and returns
// the snake case name used by the enum parsers.
func toEnumName(s zygo.Sexp) (string, error) {
	name, ok := keyword(s)
	if !ok {
		str, isStr := s.(*zygo.SexpStr)
		if !isStr {
			return "", fmt.Errorf("expected keyword, got %s", describe(s))
		}
		name = str.S
	}
	return strings.ReplaceAll(name, "-", "_"), nil
}

// toFloats accepts a number, a vec3, a list or an array of numbers.
func toFloats(s zygo.Sexp) ([]float64, error) {
	switch v := s.(type) {
	case *sexpVec3:
		return slices.Clone(v.v[:]), nil
	case *zygo.SexpInt, *zygo.SexpFloat:
		f, err := toFloat64(v)
		return []float64{f}, err
	}
	items, err := toSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, item := range items {
		if out[i], err = toFloat64(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return out, nil
}

func toInts(s zygo.Sexp) ([]int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return []int{int(v.Val)}, nil
	}
	items, err := toSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(items))
	for i, item := range items {
		if out[i], err = toInt(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return out, nil
}

// toSlice converts a list or an array.
func toSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %s", describe(s))
}

func describe(s zygo.Sexp) string {
	if s == nil {
		return "nothing"
	}
	if name, ok := keyword(s); ok {
		return ":" + name
	}
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}
