// Package paramfile reads request parameters given on the command line as
// inline YAML/JSON, @path files, or @- for stdin.
package paramfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stdin is read for "@-". Replaced in tests.
var Stdin io.Reader = os.Stdin

// Load resolves value (inline document, @path or @-) and decodes it into a
// parameter map. JSON is accepted because it is valid YAML.
func Load(value string) (map[string]any, error) {
	raw, err := readAt(value)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// Decode parses a YAML or JSON object. An empty document yields an empty map.
func Decode(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	obj, ok := normalize(doc).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid params: expected an object, got %T", doc)
	}
	return obj, nil
}

// Set assigns key=value pairs onto params. Values are typed as YAML scalars,
// so "n=2" sets a number and "stream=true" a boolean. Dotted keys address
// nested objects.
func Set(params map[string]any, pairs []string) error {
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid param %q (expected key=value)", pair)
		}
		var typed any
		if err := yaml.Unmarshal([]byte(value), &typed); err != nil || typed == nil {
			typed = value
		}
		setPath(params, strings.Split(key, "."), normalize(typed))
	}
	return nil
}

// Merge copies src over dst, descending into nested objects.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				dst[k] = Merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}

func setPath(m map[string]any, path []string, value any) {
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// normalize converts map[any]any produced for non-string keys into
// map[string]any so the result encodes as JSON.
func normalize(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		for k, item := range vv {
			vv[k] = normalize(item)
		}
		return vv
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, item := range vv {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range vv {
			vv[i] = normalize(item)
		}
		return vv
	default:
		return v
	}
}

func readAt(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "@") {
		return []byte(value), nil
	}
	target := strings.TrimPrefix(value, "@")
	if target == "" {
		return nil, fmt.Errorf("invalid @ value: missing path (use @- for stdin)")
	}
	if target == "-" {
		data, err := io.ReadAll(Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", target, err)
	}
	return data, nil
}
