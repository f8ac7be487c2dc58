package payload

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// checker walks a generic JSON tree and collects violations.
// Trees produced by oj and by encoding/json are both accepted.
type checker struct {
	violations []Violation
}

func (c *checker) fail(p jp.Expr, format string, args ...any) {
	c.violations = append(c.violations, Violation{Path: p, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) ok() bool {
	return len(c.violations) == 0
}

func (c *checker) result(version int, cause error) error {
	if c.ok() {
		return nil
	}
	return &ValidationError{Version: version, Violations: c.violations, cause: cause}
}

func root() jp.Expr {
	return jp.R()
}

// child and nth copy the path so siblings never share a backing array.
func child(p jp.Expr, key string) jp.Expr {
	ret := make(jp.Expr, len(p), len(p)+1)
	copy(ret, p)
	return append(ret, jp.Child(key))
}

func nth(p jp.Expr, i int) jp.Expr {
	ret := make(jp.Expr, len(p), len(p)+1)
	copy(ret, p)
	return append(ret, jp.Nth(i))
}

// field returns the value of a required key, recording a violation if absent.
func (c *checker) field(p jp.Expr, m map[string]any, key string) (any, jp.Expr, bool) {
	fp := child(p, key)
	v, ok := m[key]
	if !ok {
		c.fail(fp, "required")
	}
	return v, fp, ok
}

func (c *checker) object(p jp.Expr, v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		c.fail(p, "expected object, received %s", kind(v))
	}
	return m, ok
}

func (c *checker) array(p jp.Expr, v any) ([]any, bool) {
	a, ok := v.([]any)
	if !ok {
		c.fail(p, "expected array, received %s", kind(v))
	}
	return a, ok
}

func (c *checker) str(p jp.Expr, v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		c.fail(p, "expected string, received %s", kind(v))
	}
	return s, ok
}

func (c *checker) number(p jp.Expr, v any) (float64, bool) {
	n, ok := toNumber(v)
	if !ok {
		c.fail(p, "expected number, received %s", kind(v))
	}
	return n, ok
}

func (c *checker) literal(p jp.Expr, v any, want int) bool {
	if n, ok := toNumber(v); ok && n == float64(want) {
		return true
	}
	c.fail(p, "invalid literal value, expected %d", want)
	return false
}

func oneOf[T ~string](c *checker, p jp.Expr, v any, allowed []T) (T, bool) {
	s, ok := v.(string)
	if !ok {
		c.fail(p, "expected string, received %s", kind(v))
		return "", false
	}
	if !slices.Contains(allowed, T(s)) {
		names := make([]string, len(allowed))
		for i, a := range allowed {
			names[i] = string(a)
		}
		c.fail(p, "invalid enum value, expected %s, received %q",
			strings.Join(names, " | "), s)
		return "", false
	}
	return T(s), true
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		if _, ok := toNumber(v); ok {
			return "number"
		}
		return fmt.Sprintf("%T", v)
	}
}
