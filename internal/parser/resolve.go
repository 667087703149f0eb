package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KimNorgaard/go-ryaml/internal/ast"
	"github.com/KimNorgaard/go-ryaml/internal/token"
)

// resolveToken returns the value of a scalar token. Quoted and block
// scalars are always strings; plain scalars are resolved against the core
// schema unless an explicit tag says otherwise.
func resolveToken(tok token.Token, tag string) (ast.Kind, any, error) {
	switch tag {
	case "":
		if tok.Type == token.PLAIN {
			kind, v := Resolve(tok.Literal)
			return kind, v, nil
		}
		return ast.Scalar, tok.Literal, nil
	case "!", "!!str":
		return ast.Scalar, tok.Literal, nil
	}

	kind, v := Resolve(tok.Literal)
	switch tag {
	case "!!null":
		if kind == ast.Null {
			return ast.Null, nil, nil
		}
	case "!!bool":
		if _, ok := v.(bool); ok {
			return ast.Scalar, v, nil
		}
	case "!!int":
		if _, ok := v.(int64); ok {
			return ast.Scalar, v, nil
		}
	case "!!float":
		switch n := v.(type) {
		case float64:
			return ast.Scalar, n, nil
		case int64:
			return ast.Scalar, float64(n), nil
		}
	default:
		return 0, nil, fmt.Errorf("unsupported tag %s", tag)
	}
	return 0, nil, fmt.Errorf("invalid value %q for tag %s", tok.Literal, tag)
}

// Resolve returns the kind and value a plain scalar with text s denotes.
// Text that is not a null, boolean or number is a string.
func Resolve(s string) (ast.Kind, any) {
	switch s {
	case "", "~", "null", "Null", "NULL":
		return ast.Null, nil
	case "true", "True", "TRUE":
		return ast.Scalar, true
	case "false", "False", "FALSE":
		return ast.Scalar, false
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF":
		return ast.Scalar, math.Inf(1)
	case "-.inf", "-.Inf", "-.INF":
		return ast.Scalar, math.Inf(-1)
	case ".nan", ".NaN", ".NAN":
		return ast.Scalar, math.NaN()
	}
	if v, ok := parseNumber(s); ok {
		return ast.Scalar, v
	}
	return ast.Scalar, s
}

func parseNumber(s string) (any, bool) {
	if v, ok := parsePrefixedInt(s); ok {
		return v, true
	}

	isFloat, ok := classifyNumber(s)
	if !ok {
		return nil, false
	}
	if !isFloat {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v, true
		} else if !errors.Is(err, strconv.ErrRange) {
			return nil, false
		}
		// Integers beyond 64 bits degrade to floats.
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, false
	}
	return f, true
}

func parsePrefixedInt(s string) (int64, bool) {
	var base int
	switch {
	case strings.HasPrefix(s, "0x"):
		base = 16
	case strings.HasPrefix(s, "0o"):
		base = 8
	default:
		return 0, false
	}
	digits := s[2:]
	if digits == "" || strings.ContainsAny(digits, "_+-") {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// classifyNumber checks s against the core schema number forms
// [-+]? ( digits | digits '.' digits? | '.' digits ) ( [eE] [-+]? digits )?
// and reports whether it denotes a float.
func classifyNumber(s string) (isFloat, ok bool) {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}

	intDigits := countDigits(s, i)
	i += intDigits

	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		isFloat = true
		i++
		fracDigits = countDigits(s, i)
		i += fracDigits
	}
	if intDigits == 0 && fracDigits == 0 {
		return false, false
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		isFloat = true
		i++
		if i < len(s) && (s[i] == '-' || s[i] == '+') {
			i++
		}
		expDigits := countDigits(s, i)
		if expDigits == 0 {
			return false, false
		}
		i += expDigits
	}

	// Must consume the whole string.
	if i != len(s) {
		return false, false
	}
	return isFloat, true
}

func countDigits(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] >= '0' && s[i+n] <= '9' {
		n++
	}
	return n
}
