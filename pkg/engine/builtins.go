package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites script source before passing it to zygomys.
// It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: step-dx -> step_dx
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpCutout is what `cutout` returns, so scripts can print or bind it.
type sexpCutout struct {
	c Cutout
}

func (s *sexpCutout) SexpString(ps *zygo.PrintState) string {
	src := strconv.Quote(s.c.File)
	key := "file"
	if s.c.Model != "" {
		src, key = strconv.Quote(s.c.Model), "model"
	}
	return fmt.Sprintf("(cutout :%s %s :volume %d :from %d :to %d)", key, src, s.c.Volume, s.c.From, s.c.To)
}
func (s *sexpCutout) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// unknown returns the keywords in pa that are not in allowed, sorted.
func (pa kwArgs) unknown(allowed ...string) []string {
	var out []string
	for k := range pa.kw {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number from a Sexp.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected whole number, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toMicrons converts a length in millimetres to micrometres.
func toMicrons(s zygo.Sexp) (int64, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f * 1000)), nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the job script builtins into a zygomys
// environment. They record declarations into p.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, p *Plan) {

	// -----------------------------------------------------------------------
	// (param "layerThickness" 200)
	// (param "startCode" "G28")
	// -----------------------------------------------------------------------
	env.AddFunction("param", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("param requires a key and a value, got %d arguments", len(args))
		}
		key, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("param: key: %w", err)
		}
		if key == "" || strings.Contains(key, "=") {
			return zygo.SexpNull, fmt.Errorf("param: invalid key %q", key)
		}

		var value string
		if s, ok := args[1].(*zygo.SexpStr); ok {
			value = s.S
		} else {
			n, err := toInt(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("param: %s: %w", key, err)
			}
			value = strconv.Itoa(n)
		}
		p.Params = append(p.Params, key+"="+value)
		return args[1], nil
	})

	// -----------------------------------------------------------------------
	// (cutout :file "hole.txt" :scale 1000 :volume 0 :from 5 :to 40
	//         :dx -1.6 :dy 0 :step-dx 0.1 :step-dy 0)
	// (cutout :model "box:10x10x5" :from 0 :to 25)
	// -----------------------------------------------------------------------
	env.AddFunction("cutout", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("cutout takes keyword arguments only")
		}
		if bad := pa.unknown("file", "model", "volume", "from", "to", "scale", "dx", "dy", "step-dx", "step-dy"); len(bad) > 0 {
			return zygo.SexpNull, fmt.Errorf("cutout: unknown keyword :%s", bad[0])
		}

		c := Cutout{To: -1, Scale: 1000}
		if v, ok := pa.kw["file"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cutout: file: %w", err)
			}
			c.File = s
		}
		if v, ok := pa.kw["model"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cutout: model: %w", err)
			}
			c.Model = s
		}
		if (c.File == "") == (c.Model == "") {
			return zygo.SexpNull, fmt.Errorf("cutout requires exactly one of :file or :model")
		}

		ints := []struct {
			key string
			dst *int
		}{
			{"volume", &c.Volume},
			{"from", &c.From},
			{"to", &c.To},
		}
		for _, f := range ints {
			if v, ok := pa.kw[f.key]; ok {
				n, err := toInt(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("cutout: %s: %w", f.key, err)
				}
				*f.dst = n
			}
		}
		if c.Volume < 0 || c.From < 0 {
			return zygo.SexpNull, fmt.Errorf("cutout: volume and from must be non-negative")
		}

		lengths := []struct {
			key string
			dst *int64
		}{
			{"dx", &c.DX},
			{"dy", &c.DY},
			{"step-dx", &c.StepDX},
			{"step-dy", &c.StepDY},
		}
		for _, f := range lengths {
			if v, ok := pa.kw[f.key]; ok {
				n, err := toMicrons(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("cutout: %s: %w", f.key, err)
				}
				*f.dst = n
			}
		}

		if v, ok := pa.kw["scale"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cutout: scale: %w", err)
			}
			if f <= 0 {
				return zygo.SexpNull, fmt.Errorf("cutout: scale must be positive, got %g", f)
			}
			c.Scale = f
		}

		if c.To >= 0 && c.To <= c.From {
			p.Warnings = append(p.Warnings, EvalWarning{
				Message: fmt.Sprintf("cutout: layer range [%d, %d) is empty", c.From, c.To),
			})
		}
		p.Cutouts = append(p.Cutouts, c)
		return &sexpCutout{c: c}, nil
	})
}
