// Package params parses bracket-notation request parameters
// (metadata[key]=value, items[0][plan]=gold, expand[]=customer) into a tree
// and exposes typed lookups that distinguish three states: the field was not
// sent, the field was sent empty (a request to clear it), or the field was
// sent with a value.
package params

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
)

// State tells whether and how a field was supplied.
type State int

const (
	Absent State = iota
	Null
	Set
)

// Field is a tri-state typed value.
type Field[T any] struct {
	State State
	Value T
}

func (f Field[T]) IsSet() bool    { return f.State == Set }
func (f Field[T]) IsNull() bool   { return f.State == Null }
func (f Field[T]) IsAbsent() bool { return f.State == Absent }

// Present is true for both Set and Null.
func (f Field[T]) Present() bool { return f.State != Absent }

// Or returns the value when set and def otherwise.
func (f Field[T]) Or(def T) T {
	if f.State == Set {
		return f.Value
	}
	return def
}

// Params is a parsed parameter tree. Leaves are strings, inner nodes are
// map[string]any or []any.
type Params struct {
	prefix string
	root   map[string]any
}

// New wraps an already built tree.
func New(root map[string]any) *Params {
	if root == nil {
		root = map[string]any{}
	}
	return &Params{root: root}
}

// Parse decodes an application/x-www-form-urlencoded body or query string.
func Parse(raw string) (*Params, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, apierror.InvalidRequest("Invalid request body: "+err.Error(), "")
	}
	return FromValues(values)
}

// FromValues builds a tree from decoded url values.
func FromValues(values url.Values) (*Params, error) {
	root := map[string]any{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := splitName(key)
		if len(path) == 0 {
			continue
		}
		for _, v := range values[key] {
			if err := insert(root, path, v, key); err != nil {
				return nil, err
			}
		}
	}
	for k, v := range root {
		root[k] = normalize(v)
	}
	return &Params{root: root}, nil
}

// Merge returns a tree holding the fields of p overlaid with other.
func (p *Params) Merge(other *Params) *Params {
	out := make(map[string]any, len(p.root)+len(other.root))
	for k, v := range p.root {
		out[k] = v
	}
	for k, v := range other.root {
		out[k] = v
	}
	return New(out)
}

// Tree exposes the raw tree, mainly for structural comparison.
func (p *Params) Tree() map[string]any {
	return p.root
}

// Len is the number of top-level fields.
func (p *Params) Len() int {
	return len(p.root)
}

// Keys lists the top-level field names in sorted order.
func (p *Params) Keys() []string {
	keys := make([]string, 0, len(p.root))
	for k := range p.root {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Name renders the full dotted-bracket name of a field for error messages.
func (p *Params) Name(name string) string {
	if p.prefix == "" {
		return name
	}
	path := splitName(name)
	var b strings.Builder
	b.WriteString(p.prefix)
	for _, seg := range path {
		b.WriteString("[")
		b.WriteString(seg)
		b.WriteString("]")
	}
	return b.String()
}

// Lookup resolves name (either "field" or "field[sub][...]") in the tree.
func (p *Params) Lookup(name string) (any, State) {
	var node any = p.root
	for _, seg := range splitName(name) {
		switch n := node.(type) {
		case map[string]any:
			v, ok := n[seg]
			if !ok {
				return nil, Absent
			}
			node = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(n) {
				return nil, Absent
			}
			node = n[i]
		default:
			return nil, Absent
		}
	}
	if s, ok := node.(string); ok && s == "" {
		return "", Null
	}
	return node, Set
}

// Has reports whether the field was sent at all.
func (p *Params) Has(name string) bool {
	_, st := p.Lookup(name)
	return st != Absent
}

// String returns a scalar field.
func (p *Params) String(name string) Field[string] {
	v, st := p.Lookup(name)
	if st != Set {
		return Field[string]{State: st}
	}
	s, ok := v.(string)
	if !ok {
		return Field[string]{State: Absent}
	}
	return Field[string]{State: Set, Value: s}
}

// Int64 returns an integer field.
func (p *Params) Int64(name string) (Field[int64], error) {
	f := p.String(name)
	if f.State != Set {
		return Field[int64]{State: f.State}, p.scalarCheck(name)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(f.Value), 10, 64)
	if err != nil {
		return Field[int64]{}, apierror.InvalidRequest("Invalid integer: "+f.Value, p.Name(name))
	}
	return Field[int64]{State: Set, Value: n}, nil
}

// Float64 returns a decimal field.
func (p *Params) Float64(name string) (Field[float64], error) {
	f := p.String(name)
	if f.State != Set {
		return Field[float64]{State: f.State}, p.scalarCheck(name)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
	if err != nil {
		return Field[float64]{}, apierror.InvalidRequest("Invalid decimal: "+f.Value, p.Name(name))
	}
	return Field[float64]{State: Set, Value: n}, nil
}

// Bool returns a boolean field.
func (p *Params) Bool(name string) (Field[bool], error) {
	f := p.String(name)
	if f.State != Set {
		return Field[bool]{State: f.State}, p.scalarCheck(name)
	}
	switch strings.ToLower(strings.TrimSpace(f.Value)) {
	case "true":
		return Field[bool]{State: Set, Value: true}, nil
	case "false":
		return Field[bool]{State: Set, Value: false}, nil
	}
	return Field[bool]{}, apierror.InvalidRequest("Invalid boolean: "+f.Value, p.Name(name))
}

// StringMap returns a hash of scalar values, such as metadata.
func (p *Params) StringMap(name string) (Field[map[string]string], error) {
	v, st := p.Lookup(name)
	if st != Set {
		return Field[map[string]string]{State: st}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Field[map[string]string]{}, apierror.InvalidRequest("Invalid hash", p.Name(name))
	}
	out := make(map[string]string, len(m))
	for k, raw := range m {
		s, ok := raw.(string)
		if !ok {
			return Field[map[string]string]{}, apierror.InvalidRequest("Invalid hash", p.Name(name)+"["+k+"]")
		}
		out[k] = s
	}
	return Field[map[string]string]{State: Set, Value: out}, nil
}

// Strings returns an array of scalar values.
func (p *Params) Strings(name string) (Field[[]string], error) {
	v, st := p.Lookup(name)
	if st != Set {
		return Field[[]string]{State: st}, nil
	}
	switch n := v.(type) {
	case string:
		return Field[[]string]{State: Set, Value: []string{n}}, nil
	case []any:
		out := make([]string, 0, len(n))
		for _, raw := range n {
			s, ok := raw.(string)
			if !ok {
				return Field[[]string]{}, apierror.InvalidRequest("Invalid array", p.Name(name))
			}
			out = append(out, s)
		}
		return Field[[]string]{State: Set, Value: out}, nil
	}
	return Field[[]string]{}, apierror.InvalidRequest("Invalid array", p.Name(name))
}

// List returns an array of hashes, such as subscription items.
func (p *Params) List(name string) (Field[[]*Params], error) {
	v, st := p.Lookup(name)
	if st != Set {
		return Field[[]*Params]{State: st}, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return Field[[]*Params]{}, apierror.InvalidRequest("Invalid array", p.Name(name))
	}
	out := make([]*Params, 0, len(arr))
	for i, raw := range arr {
		m, ok := raw.(map[string]any)
		if !ok {
			return Field[[]*Params]{}, apierror.InvalidRequest("Invalid hash", p.Name(name)+"["+strconv.Itoa(i)+"]")
		}
		out = append(out, &Params{prefix: p.Name(name) + "[" + strconv.Itoa(i) + "]", root: m})
	}
	return Field[[]*Params]{State: Set, Value: out}, nil
}

// Sub returns a nested hash as its own Params, or nil when it is not a hash.
func (p *Params) Sub(name string) *Params {
	v, st := p.Lookup(name)
	if st != Set {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return &Params{prefix: p.Name(name), root: m}
}

// scalarCheck rejects a hash or array sent where a scalar is expected.
func (p *Params) scalarCheck(name string) error {
	v, st := p.Lookup(name)
	if st != Set {
		return nil
	}
	if _, ok := v.(string); !ok {
		return apierror.InvalidRequest("Invalid value", p.Name(name))
	}
	return nil
}

// splitName turns "a[b][c]" into ["a", "b", "c"].
func splitName(name string) []string {
	i := strings.IndexByte(name, '[')
	if i < 0 {
		if name == "" {
			return nil
		}
		return []string{name}
	}
	path := []string{name[:i]}
	rest := name[i:]
	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	return path
}

func insert(node map[string]any, path []string, value, key string) error {
	seg := path[0]
	if len(path) == 1 {
		if seg == "" {
			seg = strconv.Itoa(len(node))
		}
		if existing, ok := node[seg]; ok {
			if _, isMap := existing.(map[string]any); isMap {
				return apierror.InvalidRequest("Invalid value for "+key, key)
			}
		}
		node[seg] = value
		return nil
	}
	if seg == "" {
		seg = strconv.Itoa(len(node))
	}
	child, ok := node[seg]
	if !ok {
		m := map[string]any{}
		node[seg] = m
		return insert(m, path[1:], value, key)
	}
	m, ok := child.(map[string]any)
	if !ok {
		// "a=x&a[b]=y": a hash wins over the scalar, which is how an empty
		// value clears a field before its members are set.
		if s, isStr := child.(string); isStr && s == "" {
			m = map[string]any{}
			node[seg] = m
			return insert(m, path[1:], value, key)
		}
		return apierror.InvalidRequest("Invalid value for "+key, key)
	}
	return insert(m, path[1:], value, key)
}

// normalize converts hashes whose keys are all array indexes into slices.
func normalize(node any) any {
	m, ok := node.(map[string]any)
	if !ok {
		return node
	}
	for k, v := range m {
		m[k] = normalize(v)
	}
	if len(m) == 0 {
		return m
	}
	indexes := make([]int, 0, len(m))
	for k := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 {
			return m
		}
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	out := make([]any, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, m[strconv.Itoa(i)])
	}
	return out
}
