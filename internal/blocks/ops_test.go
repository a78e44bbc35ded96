/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package blocks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestParseOp(t *testing.T) {
	tests := []struct {
		name  string
		op    string
		index *int
		path  string
		key   string
		want  Op
	}{
		{"append row", "append_row", nil, "", "", Append{List: "rows", Value: json.RawMessage(`1`)}},
		{"append with key", "append", nil, "", "steps", Append{List: "steps", Value: json.RawMessage(`1`)}},
		{"append arrays", "append_arrays", nil, "", "", AppendArrays{Patch: json.RawMessage(`1`)}},
		{"replace whole", "replace", nil, "", "", Replace{Props: json.RawMessage(`1`)}},
		{"replace item", "replace_item", intPtr(2), "", "", ReplaceAt{List: "items", Index: 2, Value: json.RawMessage(`1`)}},
		{"remove metric", "remove_metric", intPtr(0), "", "", RemoveAt{List: "metrics", Index: 0}},
		{"set property", "set_property", nil, "value", "", SetPath{Path: "value", Value: json.RawMessage(`1`)}},
		{"update merge", "update", nil, "", "", Merge{Patch: json.RawMessage(`1`)}},
		{"merge key", "merge", nil, "", "meta", Merge{Key: "meta", Patch: json.RawMessage(`1`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := ParseOp(tt.op, json.RawMessage(`1`), tt.index, tt.path, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, op)
		})
	}
}

func TestParseOp_Errors(t *testing.T) {
	_, err := ParseOp("remove_row", nil, nil, "", "")
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = ParseOp("set", json.RawMessage(`1`), nil, "", "")
	assert.ErrorIs(t, err, ErrPathRequired)

	_, err = ParseOp("frobnicate", nil, nil, "", "")
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestApply_AppendRow(t *testing.T) {
	p := &TableProps{Headers: []string{"name", "cost"}, Rows: [][]Cell{{"A", "1"}}}

	out, err := Apply(p, Append{List: "rows", Value: json.RawMessage(`["B",2]`)})
	require.NoError(t, err)

	assert.Equal(t, [][]Cell{{"A", "1"}, {"B", "2"}}, out.(*TableProps).Rows)
	assert.Len(t, p.Rows, 1, "input must not be mutated")
}

func TestApply_ReplaceAndRemove(t *testing.T) {
	p := &AccordionProps{Items: []AccordionItem{{Title: "a"}, {Title: "b"}}}

	out, err := Apply(p, ReplaceAt{Index: 1, Value: json.RawMessage(`{"title":"c","content":"x"}`)})
	require.NoError(t, err)
	assert.Equal(t, AccordionItem{Title: "c", Content: "x"}, out.(*AccordionProps).Items[1])

	out, err = Apply(out, RemoveAt{Index: 0})
	require.NoError(t, err)
	assert.Equal(t, []AccordionItem{{Title: "c", Content: "x"}}, out.(*AccordionProps).Items)

	_, err = Apply(out, RemoveAt{Index: 5})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestApply_SetPath(t *testing.T) {
	out, err := Apply(&ProgressProps{Max: 100}, SetPath{Path: "value", Value: json.RawMessage(`75`)})
	require.NoError(t, err)
	assert.Equal(t, &ProgressProps{Value: 75, Max: 100}, out)

	card := &CardProps{Metrics: []Metric{{Label: "cpu", Value: "1"}}, Items: []Cell{}}
	out, err = Apply(card, SetPath{Path: "metrics.0.value", Value: json.RawMessage(`"9"`)})
	require.NoError(t, err)
	assert.Equal(t, Cell("9"), out.(*CardProps).Metrics[0].Value)

	_, err = Apply(card, SetPath{Path: "title.x", Value: json.RawMessage(`1`)})
	assert.Error(t, err)
}

func TestApply_MergeAndReplace(t *testing.T) {
	p := &AlertProps{Variant: "info", Title: "t", Content: "c"}

	out, err := Apply(p, Merge{Patch: json.RawMessage(`{"variant":"warning"}`)})
	require.NoError(t, err)
	assert.Equal(t, &AlertProps{Variant: "warning", Title: "t", Content: "c"}, out)

	out, err = Apply(p, Replace{Props: json.RawMessage(`{"content":"only"}`)})
	require.NoError(t, err)
	assert.Equal(t, &AlertProps{Variant: "info", Content: "only"}, out,
		"replace starts from defaults")
}

func TestApply_AppendArrays(t *testing.T) {
	p := &TableProps{Headers: []string{"x"}, Rows: [][]Cell{{"1"}}}

	out, err := Apply(p, AppendArrays{Patch: json.RawMessage(
		`{"rows":[["2"],["3"]],"caption":"ignored"}`)})
	require.NoError(t, err)

	tp := out.(*TableProps)
	assert.Equal(t, [][]Cell{{"1"}, {"2"}, {"3"}}, tp.Rows)
	assert.Empty(t, tp.Caption)
}

func TestApply_UnknownType(t *testing.T) {
	p := &UnknownProps{TypeName: "chart", Fields: map[string]any{"points": []any{1.0}}}

	out, err := Apply(p, Append{List: "points", Value: json.RawMessage(`2`)})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, out.(*UnknownProps).Fields["points"])
	assert.Equal(t, []any{1.0}, p.Fields["points"])

	_, err = Apply(p, Append{Value: json.RawMessage(`2`)})
	assert.ErrorIs(t, err, ErrNoSuchList)
}
