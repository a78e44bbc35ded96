/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package blocks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownOp       = errors.New("unknown update operation")
	ErrIndexRequired   = errors.New("update operation requires an index")
	ErrPathRequired    = errors.New("update operation requires a path")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNoSuchList      = errors.New("no such list on block")
)

// Op is one incremental update to a block's props. The set of operations is
// closed; see the types below.
type Op interface {
	isOp()
}

// Append adds one element to a list. An empty List selects the type's
// primary list (table rows, accordion items, card metrics, substeps steps).
type Append struct {
	List  string
	Value json.RawMessage
}

type ReplaceAt struct {
	List  string
	Index int
	Value json.RawMessage
}

type RemoveAt struct {
	List  string
	Index int
}

// SetPath assigns a scalar (or any JSON value) at a dot-separated path.
// Numeric segments index into arrays.
type SetPath struct {
	Path  string
	Value json.RawMessage
}

// Merge shallow-merges an object into the sub-object at Key, or into the
// top level when Key is empty. A non-object at Key is replaced.
type Merge struct {
	Key   string
	Patch json.RawMessage
}

// Replace swaps the whole props for the given attributes.
type Replace struct {
	Props json.RawMessage
}

// AppendArrays appends each array-valued key of Patch onto the existing
// array of the same name. Keys that are not arrays on both sides are
// ignored.
type AppendArrays struct {
	Patch json.RawMessage
}

func (Append) isOp()       {}
func (ReplaceAt) isOp()    {}
func (RemoveAt) isOp()     {}
func (SetPath) isOp()      {}
func (Merge) isOp()        {}
func (Replace) isOp()      {}
func (AppendArrays) isOp() {}

// ParseOp maps a wire operation name and its arguments onto an Op.
func ParseOp(name string, data json.RawMessage, index *int, path,
	key string) (Op, error) {

	verb, list, _ := strings.Cut(strings.ToLower(strings.TrimSpace(name)), "_")
	if list == "" {
		list = key
	} else {
		list = listName(list)
	}

	switch verb {
	case "append":
		if list == "arrays" || list == "to_arrays" {
			return AppendArrays{Patch: data}, nil
		}
		return Append{List: list, Value: data}, nil
	case "replace":
		if list == "props" || (list == "" && index == nil) {
			return Replace{Props: data}, nil
		}
		if index == nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexRequired, name)
		}
		return ReplaceAt{List: list, Index: *index, Value: data}, nil
	case "remove":
		if index == nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexRequired, name)
		}
		return RemoveAt{List: list, Index: *index}, nil
	case "set", "update":
		if verb == "update" && list == "" && path == "" {
			return Merge{Patch: data}, nil
		}
		if path == "" {
			path = key
		}
		if path == "" {
			return nil, fmt.Errorf("%w: %v", ErrPathRequired, name)
		}
		return SetPath{Path: path, Value: data}, nil
	case "merge":
		return Merge{Key: key, Patch: data}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOp, name)
}

// listName turns the singular suffix of an operation name into the list's
// wire name ("row" -> "rows").
func listName(suffix string) string {
	switch suffix {
	case "row":
		return "rows"
	case "item":
		return "items"
	case "metric":
		return "metrics"
	case "step":
		return "steps"
	case "header":
		return "headers"
	case "property":
		return ""
	}
	return suffix
}

// Apply returns a copy of p with op applied; p is left untouched.
func Apply(p Props, op Op) (Props, error) {
	switch o := op.(type) {
	case Append:
		return applyList(p, o.List, func(l listRef) error {
			return l.appendRaw(o.Value)
		})
	case ReplaceAt:
		return applyList(p, o.List, func(l listRef) error {
			return l.replaceRaw(o.Index, o.Value)
		})
	case RemoveAt:
		return applyList(p, o.List, func(l listRef) error {
			return l.remove(o.Index)
		})
	case SetPath:
		return applyMap(p, func(m map[string]any) error {
			var v any
			if err := json.Unmarshal(o.Value, &v); err != nil {
				return err
			}
			return setPath(m, strings.Split(o.Path, "."), v)
		})
	case Merge:
		return applyMap(p, func(m map[string]any) error {
			var patch any
			if err := json.Unmarshal(o.Patch, &patch); err != nil {
				return err
			}
			return mergeAt(m, o.Key, patch)
		})
	case Replace:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(o.Props, &fields); err != nil {
			return nil, err
		}
		name := ""
		if u, ok := p.(*UnknownProps); ok {
			name = u.TypeName
		}
		return DecodeProps(p.Kind(), name, fields)
	case AppendArrays:
		return applyMap(p, func(m map[string]any) error {
			var patch map[string]any
			if err := json.Unmarshal(o.Patch, &patch); err != nil {
				return err
			}
			for k, v := range patch {
				extra, ok := v.([]any)
				if !ok {
					continue
				}
				cur, ok := m[k].([]any)
				if !ok {
					continue
				}
				m[k] = append(cur, extra...)
			}
			return nil
		})
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownOp, op)
}

// listRef gives typed access to one list field of a props value.
type listRef interface {
	appendRaw(raw json.RawMessage) error
	replaceRaw(i int, raw json.RawMessage) error
	remove(i int) error
}

type typedList[T any] struct {
	s *[]T
}

func (l typedList[T]) appendRaw(raw json.RawMessage) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*l.s = append(*l.s, v)
	return nil
}

func (l typedList[T]) replaceRaw(i int, raw json.RawMessage) error {
	if i < 0 || i >= len(*l.s) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(*l.s))
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	(*l.s)[i] = v
	return nil
}

func (l typedList[T]) remove(i int) error {
	if i < 0 || i >= len(*l.s) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(*l.s))
	}
	*l.s = append((*l.s)[:i:i], (*l.s)[i+1:]...)
	return nil
}

func listOf(p Props, name string) (listRef, error) {
	switch v := p.(type) {
	case *TableProps:
		switch name {
		case "", "rows":
			return typedList[[]Cell]{&v.Rows}, nil
		case "headers":
			return typedList[string]{&v.Headers}, nil
		}
	case *AccordionProps:
		if name == "" || name == "items" {
			return typedList[AccordionItem]{&v.Items}, nil
		}
	case *CardProps:
		switch name {
		case "", "metrics":
			return typedList[Metric]{&v.Metrics}, nil
		case "items":
			return typedList[Cell]{&v.Items}, nil
		}
	case *SubstepsProps:
		switch name {
		case "", "steps":
			return typedList[Step]{&v.Steps}, nil
		case "completedSteps":
			return typedList[int]{&v.CompletedSteps}, nil
		}
	case *UnknownProps:
		if name != "" {
			return &anyList{fields: v.Fields, key: name}, nil
		}
	}
	return nil, fmt.Errorf("%w: %v on %v", ErrNoSuchList, name, p.Kind())
}

// anyList is the untyped fallback used for unknown block types.
type anyList struct {
	fields map[string]any
	key    string
}

func (l *anyList) items() []any {
	cur, _ := l.fields[l.key].([]any)
	return cur
}

func (l *anyList) appendRaw(raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	l.fields[l.key] = append(l.items(), v)
	return nil
}

func (l *anyList) replaceRaw(i int, raw json.RawMessage) error {
	cur := l.items()
	if i < 0 || i >= len(cur) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(cur))
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	cur[i] = v
	return nil
}

func (l *anyList) remove(i int) error {
	cur := l.items()
	if i < 0 || i >= len(cur) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(cur))
	}
	l.fields[l.key] = append(cur[:i:i], cur[i+1:]...)
	return nil
}

func applyList(p Props, name string, fn func(listRef) error) (Props, error) {
	out, err := Clone(p)
	if err != nil {
		return nil, err
	}
	l, err := listOf(out, name)
	if err != nil {
		return nil, err
	}
	if err := fn(l); err != nil {
		return nil, err
	}
	return out, nil
}

// applyMap runs fn over the generic map form of p and decodes the result
// back into the typed props, which validates the edit.
func applyMap(p Props, fn func(map[string]any) error) (Props, error) {
	m, err := toMap(p)
	if err != nil {
		return nil, err
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	if u, ok := p.(*UnknownProps); ok {
		return &UnknownProps{TypeName: u.TypeName, Fields: m}, nil
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, err
	}
	return DecodeProps(p.Kind(), "", fields)
}

func toMap(p Props) (map[string]any, error) {
	if u, ok := p.(*UnknownProps); ok {
		return cloneUnknown(u).Fields, nil
	}
	encoded, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(encoded, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func setPath(m map[string]any, path []string, v any) error {
	if len(path) == 0 || path[0] == "" {
		return ErrPathRequired
	}
	var cur any = m
	for i, seg := range path {
		last := i == len(path)-1
		switch node := cur.(type) {
		case map[string]any:
			if last {
				node[seg] = v
				return nil
			}
			next, ok := node[seg]
			if !ok || next == nil {
				next = map[string]any{}
				node[seg] = next
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return fmt.Errorf("path segment %q: not an index", seg)
			}
			if idx < 0 || idx >= len(node) {
				return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, idx,
					len(node))
			}
			if last {
				node[idx] = v
				return nil
			}
			cur = node[idx]
		default:
			return fmt.Errorf("path segment %q: cannot descend into %T", seg,
				node)
		}
	}
	return nil
}

func mergeAt(m map[string]any, key string, patch any) error {
	target := m
	if key != "" {
		sub, ok := m[key].(map[string]any)
		if !ok {
			m[key] = patch
			return nil
		}
		target = sub
	}
	obj, ok := patch.(map[string]any)
	if !ok {
		return fmt.Errorf("merge patch must be an object, got %T", patch)
	}
	for k, v := range obj {
		target[k] = v
	}
	return nil
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = deepCopy(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = deepCopy(vv)
		}
		return out
	}
	return v
}
