package validation

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/artpar/wildgate/core/schema"
)

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

// Options control a validation pass.
type Options struct {
	// Strict reports object fields the schema does not declare.
	Strict bool
	// Validator runs the rule tags. Nil uses a shared default.
	Validator *validator.Validate
}

func (o Options) validator() *validator.Validate {
	if o.Validator != nil {
		return o.Validator
	}
	return defaultValidator
}

// Validate checks a parsed JSON tree (as produced by codec.Parse) against node.
// Paths are rooted at the value itself: position.pips[3].
func Validate(value any, node *schema.Node, defs schema.Defs, opts Options) Outcome {
	w := walker{defs: defs, opts: opts, validate: opts.validator()}
	w.check(value, node, "")
	return w.out
}

// Params coerces raw path and query strings to their declared kinds.
// Coerced values land in Outcome.Params; failures are violations at
// paths like query.limit.
func Params(params []schema.Param, path map[string]string, query url.Values, opts Options) Outcome {
	w := walker{opts: opts, validate: opts.validator()}
	for _, p := range params {
		var (
			raw     string
			present bool
		)
		switch p.In {
		case schema.InPath:
			raw, present = path[p.Name]
		case schema.InQuery:
			present = query.Has(p.Name)
			raw = query.Get(p.Name)
		}

		key := p.Key()
		if !present {
			if p.Required {
				w.out.add(key, p.Node.Describe(), "missing", "parameter is required")
			}
			continue
		}

		v, ok := coerce(raw, p.Node)
		if !ok {
			w.out.add(key, p.Node.Describe(), strconv.Quote(raw), "cannot be read as "+p.Node.Describe())
			continue
		}
		if !w.rules(v, p.Node, key) {
			continue
		}
		if w.out.Params == nil {
			w.out.Params = make(map[string]any, len(params))
		}
		w.out.Params[key] = v
	}
	return w.out
}

type walker struct {
	defs     schema.Defs
	opts     Options
	validate *validator.Validate
	out      Outcome
}

func (w *walker) check(v any, node *schema.Node, path string) {
	if node == nil {
		return
	}
	if node.Kind == schema.KindRef {
		resolved, err := w.defs.Resolve(node)
		if err != nil {
			w.out.add(path, node.Describe(), kindOf(v), err.Error())
			return
		}
		nullable := node.Nullable
		node = resolved
		if v == nil && nullable {
			return
		}
	}
	if v == nil {
		if !node.Nullable && node.Kind != schema.KindAny {
			w.out.add(path, node.Describe(), "null", "must not be null")
		}
		return
	}

	switch node.Kind {
	case schema.KindAny:
		return
	case schema.KindString:
		s, ok := v.(string)
		if !ok {
			w.mismatch(v, node, path)
			return
		}
		if !formatOK(s, node.Format) {
			w.out.add(path, node.Describe(), strconv.Quote(s), "must be a valid "+node.Format+" string")
			return
		}
		w.rules(s, node, path)
	case schema.KindInteger:
		n, ok := v.(json.Number)
		if !ok {
			w.mismatch(v, node, path)
			return
		}
		i, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil || (node.Format == "int32" && (i < math.MinInt32 || i > math.MaxInt32)) {
			w.out.add(path, node.Describe(), string(n), "must be an integer in range")
			return
		}
		w.rules(i, node, path)
	case schema.KindNumber:
		n, ok := v.(json.Number)
		if !ok {
			w.mismatch(v, node, path)
			return
		}
		f, err := n.Float64()
		if err != nil || (node.Format == "float" && math.Abs(f) > math.MaxFloat32) {
			w.out.add(path, node.Describe(), string(n), "must be a number in range")
			return
		}
		w.rules(f, node, path)
	case schema.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			w.mismatch(v, node, path)
			return
		}
		w.rules(b, node, path)
	case schema.KindArray:
		items, ok := v.([]any)
		if !ok {
			w.mismatch(v, node, path)
			return
		}
		w.rules(items, node, path)
		for i, item := range items {
			w.check(item, node.Items, path+"["+strconv.Itoa(i)+"]")
		}
	case schema.KindMap:
		m, ok := v.(map[string]any)
		if !ok {
			w.mismatch(v, node, path)
			return
		}
		w.rules(m, node, path)
		for _, k := range sortedKeys(m) {
			w.check(m[k], node.Items, join(path, k))
		}
	case schema.KindObject:
		m, ok := v.(map[string]any)
		if !ok {
			w.mismatch(v, node, path)
			return
		}
		for _, f := range node.Fields {
			fv, present := m[f.Name]
			if !present {
				if f.Required {
					w.out.add(join(path, f.Name), f.Node.Describe(), "missing", "field is required")
				}
				continue
			}
			w.check(fv, f.Node, join(path, f.Name))
		}
		// encoding/json matches keys to fields case-insensitively, so a key
		// that folds onto a declared field would reach the decoder unchecked.
		for _, k := range sortedKeys(m) {
			if _, known := node.Field(k); known {
				continue
			}
			if f, ok := foldField(node, k); ok {
				w.out.add(join(path, k), "field "+strconv.Quote(f.Name), kindOf(m[k]),
					"field names are case-sensitive, use "+strconv.Quote(f.Name))
				continue
			}
			if w.opts.Strict {
				w.out.add(join(path, k), "nothing", kindOf(m[k]), "unknown field")
			}
		}
	}
}

// foldField returns the declared field whose name equals key under case folding.
func foldField(node *schema.Node, key string) (schema.Field, bool) {
	for _, f := range node.Fields {
		if strings.EqualFold(f.Name, key) {
			return f, true
		}
	}
	return schema.Field{}, false
}

func (w *walker) mismatch(v any, node *schema.Node, path string) {
	w.out.add(path, node.Describe(), kindOf(v), "must be "+article(node.Describe()))
}

// rules runs the node's validator tags. It reports whether the value passed.
func (w *walker) rules(v any, node *schema.Node, path string) bool {
	if node.Rules == "" {
		return true
	}
	err := w.validate.Var(v, node.Rules)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		w.out.add(path, node.Rules, actual(v), err.Error())
		return false
	}
	for _, fe := range fieldErrs {
		expected := fe.Tag()
		if fe.Param() != "" {
			expected += "=" + fe.Param()
		}
		w.out.add(path, expected, actual(v), describe(fe))
	}
	return false
}

func coerce(raw string, node *schema.Node) (any, bool) {
	switch node.Kind {
	case schema.KindString:
		return raw, formatOK(raw, node.Format)
	case schema.KindInteger:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || (node.Format == "int32" && (i < math.MinInt32 || i > math.MaxInt32)) {
			return nil, false
		}
		return i, true
	case schema.KindNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	case schema.KindBoolean:
		b, err := strconv.ParseBool(raw)
		return b, err == nil
	}
	return nil, false
}

func formatOK(s, format string) bool {
	switch format {
	case "date-time":
		_, err := time.Parse(time.RFC3339Nano, s)
		return err == nil
	case "byte":
		_, err := base64.StdEncoding.DecodeString(s)
		return err == nil
	}
	return true
}

func describe(fe validator.FieldError) string {
	unit := ""
	switch fe.Kind().String() {
	case "string":
		unit = " characters"
	case "slice", "array", "map":
		unit = " items"
	}
	switch fe.Tag() {
	case "min", "gte":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit)
	case "max", "lte":
		return fmt.Sprintf("must be at most %s%s", fe.Param(), unit)
	case "gt":
		return fmt.Sprintf("must be greater than %s%s", fe.Param(), unit)
	case "lt":
		return fmt.Sprintf("must be less than %s%s", fe.Param(), unit)
	case "len":
		if unit == "" {
			return "must equal " + fe.Param()
		}
		return fmt.Sprintf("must have exactly %s%s", fe.Param(), unit)
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return fmt.Sprintf("failed the %s rule", fe.Tag())
}

func kindOf(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		if _, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return "integer"
		}
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func actual(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case []any:
		return fmt.Sprintf("array of %d", len(x))
	case map[string]any:
		return fmt.Sprintf("object of %d", len(x))
	}
	return fmt.Sprint(v)
}

func article(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an " + s
	}
	return "a " + s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
