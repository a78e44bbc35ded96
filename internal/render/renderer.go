/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package render

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mikeb26/chorus/internal/blocks"
)

const (
	updatingMarker = "updating…"
	progressWidth  = 30
)

// Renderer turns a consumer snapshot into terminal output. It holds no
// stream state and can redraw at any point.
type Renderer struct {
	width     int
	markdown  *glamour.TermRenderer
	reasoning bool
	st        styles
}

type RendererOption func(*Renderer)

// WithMarkdown renders text fragments and text blocks as markdown.
func WithMarkdown() RendererOption {
	return func(r *Renderer) {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(r.width),
		)
		if err == nil {
			r.markdown = md
		}
	}
}

// WithReasoning includes reasoning fragments in the output.
func WithReasoning() RendererOption {
	return func(r *Renderer) {
		r.reasoning = true
	}
}

func NewRenderer(width int, opts ...RendererOption) *Renderer {
	if width <= 0 {
		width = 80
	}
	r := &Renderer{width: width, st: newStyles()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// View renders everything in snap in render order. A finished text block
// that repeats the end of its source's most recent streamed text is not
// shown twice.
func (r *Renderer) View(snap Snapshot) string {
	latest := map[string]string{}

	parts := make([]string, 0, len(snap.Entries)+1)
	for _, e := range snap.Entries {
		var out string
		if e.IsComponent() {
			st := snap.Components[e.ComponentID]
			if isEcho(st, latest[st.Source]) {
				continue
			}
			out = r.Component(st)
		} else {
			f := snap.Fragments[e.Fragment]
			if f.Kind == FragmentText {
				latest[f.Source] = f.Text
			}
			out = r.fragment(f)
		}
		if out != "" {
			parts = append(parts, out)
		}
	}
	if snap.Error != "" {
		parts = append(parts, r.st.Error.Render("✗ "+snap.Error))
	}

	return strings.Join(parts, "\n\n")
}

// isEcho reports whether st is a finished text block whose content was
// already streamed as the tail of latest.
func isEcho(st ComponentState, latest string) bool {
	p, ok := st.Props.(*blocks.TextProps)
	if !ok || st.Status != StatusCompleted {
		return false
	}
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return false
	}
	return strings.HasSuffix(strings.TrimSpace(latest), content)
}

func (r *Renderer) fragment(f TextFragment) string {
	if f.Kind == FragmentReasoning {
		if !r.reasoning {
			return ""
		}
		return r.st.Reasoning.Render(f.Source + " thinking: " +
			strings.TrimSpace(f.Text))
	}

	text := r.text(f.Text)
	if f.Source != "" && f.Source != "dispatcher" {
		return r.st.Source.Render(f.Source) + "\n" + text
	}
	return text
}

func (r *Renderer) text(s string) string {
	if r.markdown == nil {
		return s
	}
	out, err := r.markdown.Render(s)
	if err != nil {
		return s
	}
	return strings.Trim(out, "\n")
}

// Component renders one widget according to its status.
func (r *Renderer) Component(st ComponentState) string {
	switch st.Status {
	case StatusError:
		return r.st.Error.Render(fmt.Sprintf("✗ %v %v failed: %v", st.Type,
			st.ID, st.Error))
	case StatusInitializing:
		if st.Type.SupportsSkeleton() && st.Type != blocks.TypeUnknown {
			return r.skeleton(st)
		}
	}

	body := r.props(st.Props)
	if st.Status == StatusStreaming {
		body += "\n" + r.st.Updating.Render(updatingMarker)
	}
	return body
}

func (r *Renderer) skeleton(st ComponentState) string {
	label := string(st.Type)
	if t, ok := st.Props.(*blocks.SubstepsProps); ok && t.Title != "" {
		label = t.Title
	}
	bar := r.st.Skeleton.Render(strings.Repeat("░", progressWidth))
	return r.st.Muted.Render("loading "+label+"…") + "\n" + bar
}

func (r *Renderer) props(p blocks.Props) string {
	switch v := p.(type) {
	case *blocks.TextProps:
		return r.text(v.Content)
	case *blocks.CodeProps:
		head := ""
		if v.Language != "" {
			head = r.st.Muted.Render(v.Language) + "\n"
		}
		return head + r.st.Code.Render(v.Content)
	case *blocks.CardProps:
		return r.card(v)
	case *blocks.SubstepsProps:
		return r.substeps(v)
	case *blocks.AlertProps:
		style := r.st.Box.BorderForeground(alertColor(v.Variant))
		title := lipgloss.NewStyle().Bold(true).
			Foreground(alertColor(v.Variant)).Render(v.Title)
		return style.Render(strings.TrimSpace(title + "\n" + v.Content))
	case *blocks.TableProps:
		return r.table(v)
	case *blocks.QuoteProps:
		out := v.Content
		if by := attribution(v); by != "" {
			out += "\n— " + by
		}
		return r.st.Quote.Render(out)
	case *blocks.ProgressProps:
		return r.progress(v)
	case *blocks.AccordionProps:
		lines := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			lines = append(lines, r.st.Title.Render("▸ "+item.Title)+"\n  "+
				item.Content)
		}
		return strings.Join(lines, "\n")
	case *blocks.BadgeProps:
		return lipgloss.NewStyle().Padding(0, 1).Bold(true).
			Foreground(alertColor(v.Variant)).Render("[" + v.Content + "]")
	case *blocks.SeparatorProps:
		return r.st.Muted.Render(strings.Repeat("─", r.width))
	case *blocks.UnknownProps:
		return r.unknown(v)
	}
	return r.unknown(&blocks.UnknownProps{TypeName: fmt.Sprintf("%T", p)})
}

func attribution(q *blocks.QuoteProps) string {
	switch {
	case q.Author != "" && q.Source != "":
		return q.Author + ", " + q.Source
	case q.Author != "":
		return q.Author
	}
	return q.Source
}

func (r *Renderer) card(v *blocks.CardProps) string {
	var sb strings.Builder
	if v.Title != "" {
		sb.WriteString(r.st.Title.Render(v.Title))
		sb.WriteString("\n")
	}
	if v.Content != "" {
		sb.WriteString(v.Content)
		sb.WriteString("\n")
	}
	for _, m := range v.Metrics {
		fmt.Fprintf(&sb, "%v: %v", r.st.Muted.Render(m.Label), m.Value)
		if m.Unit != "" {
			sb.WriteString(" " + m.Unit)
		}
		sb.WriteString("\n")
	}
	for _, item := range v.Items {
		fmt.Fprintf(&sb, "• %v\n", item)
	}
	return r.st.Box.Render(strings.TrimRight(sb.String(), "\n"))
}

func (r *Renderer) substeps(v *blocks.SubstepsProps) string {
	done := make(map[int]bool, len(v.CompletedSteps))
	for _, i := range v.CompletedSteps {
		done[i] = true
	}

	lines := make([]string, 0, len(v.Steps)+1)
	if v.Title != "" {
		lines = append(lines, r.st.Title.Render(v.Title))
	}
	for i, s := range v.Steps {
		mark := r.st.Muted.Render("○")
		switch {
		case done[i]:
			mark = r.st.Done.Render("✓")
		case i == v.CurrentStep:
			mark = r.st.Updating.Render("●")
		}
		line := mark + " " + s.Title
		if s.Description != "" {
			line += " " + r.st.Muted.Render(s.Description)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) table(v *blocks.TableProps) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(v.Headers...)
	for _, row := range v.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = string(c)
		}
		t.Row(cells...)
	}

	out := t.Render()
	if v.Caption != "" {
		out += "\n" + r.st.Muted.Render(v.Caption)
	}
	return out
}

func (r *Renderer) progress(v *blocks.ProgressProps) string {
	ratio := 0.0
	if v.Max > 0 {
		ratio = math.Min(math.Max(v.Value/v.Max, 0), 1)
	}
	filled := int(math.Round(ratio * progressWidth))
	bar := r.st.Done.Render(strings.Repeat("█", filled)) +
		r.st.Skeleton.Render(strings.Repeat("░", progressWidth-filled))

	out := fmt.Sprintf("%v %3.0f%%", bar, ratio*100)
	if v.Label != "" {
		out = v.Label + "\n" + out
	}
	return out
}

func (r *Renderer) unknown(v *blocks.UnknownProps) string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{r.st.Error.Render(fmt.Sprintf("unknown block %q",
		v.TypeName))}
	for _, k := range keys {
		encoded, err := json.Marshal(v.Fields[k])
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%v: %v", k, string(encoded)))
	}
	return r.st.Unknown.Render(strings.Join(lines, "\n"))
}
