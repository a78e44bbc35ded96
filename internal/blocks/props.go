/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package blocks

import (
	"encoding/json"
	"fmt"
)

// Props is the tagged union of per-type block attributes. Every
// implementation is a pointer to one of the structs below.
type Props interface {
	Kind() Type
}

type TextProps struct {
	Content string `json:"content"`
}

type CodeProps struct {
	Language string `json:"language"`
	Content  string `json:"content"`
}

// CardProps backs the generic "component" card.
type CardProps struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Metrics []Metric `json:"metrics"`
	Items   []Cell   `json:"items"`
}

type Metric struct {
	Label string `json:"label"`
	Value Cell   `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

type SubstepsProps struct {
	Title          string `json:"title,omitempty"`
	Steps          []Step `json:"steps"`
	CurrentStep    int    `json:"currentStep"`
	CompletedSteps []int  `json:"completedSteps"`
}

type AlertProps struct {
	Variant string `json:"variant"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type TableProps struct {
	Headers []string `json:"headers"`
	Rows    [][]Cell `json:"rows"`
	Caption string   `json:"caption,omitempty"`
}

type QuoteProps struct {
	Content string `json:"content"`
	Author  string `json:"author,omitempty"`
	Source  string `json:"source,omitempty"`
}

type ProgressProps struct {
	Value float64 `json:"value"`
	Max   float64 `json:"max"`
	Label string  `json:"label,omitempty"`
}

type AccordionProps struct {
	Items []AccordionItem `json:"items"`
}

type AccordionItem struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type BadgeProps struct {
	Variant string `json:"variant"`
	Content string `json:"content"`
}

type SeparatorProps struct{}

// UnknownProps keeps the raw attributes of a block whose type is outside
// the closed set.
type UnknownProps struct {
	TypeName string
	Fields   map[string]any
}

func (*TextProps) Kind() Type      { return TypeText }
func (*CodeProps) Kind() Type      { return TypeCode }
func (*CardProps) Kind() Type      { return TypeComponent }
func (*SubstepsProps) Kind() Type  { return TypeSubsteps }
func (*AlertProps) Kind() Type     { return TypeAlert }
func (*TableProps) Kind() Type     { return TypeTable }
func (*QuoteProps) Kind() Type     { return TypeQuote }
func (*ProgressProps) Kind() Type  { return TypeProgress }
func (*AccordionProps) Kind() Type { return TypeAccordion }
func (*BadgeProps) Kind() Type     { return TypeBadge }
func (*SeparatorProps) Kind() Type { return TypeSeparator }
func (*UnknownProps) Kind() Type   { return TypeUnknown }

func (p *UnknownProps) MarshalJSON() ([]byte, error) {
	if p.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Fields)
}

// Cell is a table or list value. Producers send strings, numbers or
// booleans; all of them are kept as display text.
type Cell string

func (c *Cell) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Cell(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*c = ""
		return nil
	}
	*c = Cell(fmt.Sprint(v))
	return nil
}

// Step is one entry of a substeps block; the wire form is either a bare
// title string or an object.
type Step struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (s *Step) UnmarshalJSON(data []byte) error {
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		*s = Step{Title: title}
		return nil
	}
	type plain Step
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Step(p)
	return nil
}

// DefaultProps returns props with every required field set to a safe empty
// value, so renderers never see a nil list.
func DefaultProps(t Type) Props {
	switch t {
	case TypeText:
		return &TextProps{}
	case TypeCode:
		return &CodeProps{}
	case TypeComponent:
		return &CardProps{Metrics: []Metric{}, Items: []Cell{}}
	case TypeSubsteps:
		return &SubstepsProps{Steps: []Step{}, CompletedSteps: []int{}}
	case TypeAlert:
		return &AlertProps{Variant: "info"}
	case TypeTable:
		return &TableProps{Headers: []string{}, Rows: [][]Cell{}}
	case TypeQuote:
		return &QuoteProps{}
	case TypeProgress:
		return &ProgressProps{Max: 100}
	case TypeAccordion:
		return &AccordionProps{Items: []AccordionItem{}}
	case TypeBadge:
		return &BadgeProps{Variant: "default"}
	case TypeSeparator:
		return &SeparatorProps{}
	}
	return &UnknownProps{Fields: map[string]any{}}
}

// DecodeProps builds typed props for t from wire attributes, starting from
// the type's defaults so absent fields stay safe.
func DecodeProps(t Type, typeName string, fields map[string]json.RawMessage) (Props, error) {
	if t == TypeUnknown {
		p := &UnknownProps{TypeName: typeName, Fields: map[string]any{}}
		for k, raw := range fields {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("field %v: %w", k, err)
			}
			p.Fields[k] = v
		}
		return p, nil
	}

	p := DefaultProps(t)
	if len(fields) == 0 {
		return p, nil
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(encoded, p); err != nil {
		return nil, fmt.Errorf("invalid %v attributes: %w", t, err)
	}
	normalize(p)
	return p, nil
}

// MergeFields returns a copy of p with the given wire attributes laid over
// it. Absent attributes keep their current value.
func MergeFields(p Props, fields map[string]json.RawMessage) (Props, error) {
	if len(fields) == 0 {
		return Clone(p)
	}
	if u, ok := p.(*UnknownProps); ok {
		out := cloneUnknown(u)
		for k, raw := range fields {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("field %v: %w", k, err)
			}
			out.Fields[k] = v
		}
		return out, nil
	}

	out, err := Clone(p)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return nil, fmt.Errorf("invalid %v attributes: %w", p.Kind(), err)
	}
	normalize(out)
	return out, nil
}

// Clone deep-copies props.
func Clone(p Props) (Props, error) {
	if u, ok := p.(*UnknownProps); ok {
		return cloneUnknown(u), nil
	}
	encoded, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	out := DefaultProps(p.Kind())
	if err := json.Unmarshal(encoded, out); err != nil {
		return nil, err
	}
	normalize(out)
	return out, nil
}

func cloneUnknown(u *UnknownProps) *UnknownProps {
	out := &UnknownProps{TypeName: u.TypeName, Fields: map[string]any{}}
	for k, v := range u.Fields {
		out.Fields[k] = deepCopy(v)
	}
	return out
}

// normalize restores empty lists that an explicit JSON null wiped out.
func normalize(p Props) {
	switch v := p.(type) {
	case *CardProps:
		if v.Metrics == nil {
			v.Metrics = []Metric{}
		}
		if v.Items == nil {
			v.Items = []Cell{}
		}
	case *SubstepsProps:
		if v.Steps == nil {
			v.Steps = []Step{}
		}
		if v.CompletedSteps == nil {
			v.CompletedSteps = []int{}
		}
	case *TableProps:
		if v.Headers == nil {
			v.Headers = []string{}
		}
		if v.Rows == nil {
			v.Rows = [][]Cell{}
		}
	case *AccordionProps:
		if v.Items == nil {
			v.Items = []AccordionItem{}
		}
	}
}
