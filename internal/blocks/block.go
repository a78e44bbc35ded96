/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package blocks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Type identifies the widget a block renders as.
type Type string

const (
	TypeText      Type = "text"
	TypeCode      Type = "code"
	TypeComponent Type = "component"
	TypeSubsteps  Type = "substeps"
	TypeAlert     Type = "alert"
	TypeTable     Type = "table"
	TypeQuote     Type = "quote"
	TypeProgress  Type = "progress"
	TypeAccordion Type = "accordion"
	TypeBadge     Type = "badge"
	TypeSeparator Type = "separator"
	// TypeUnknown is never sent by a producer; it marks a block whose type
	// name is outside the closed set so that it can be rendered as a
	// placeholder.
	TypeUnknown Type = "unknown"
)

var knownTypes = map[string]Type{
	"text":      TypeText,
	"code":      TypeCode,
	"component": TypeComponent,
	"card":      TypeComponent,
	"substeps":  TypeSubsteps,
	"alert":     TypeAlert,
	"table":     TypeTable,
	"quote":     TypeQuote,
	"progress":  TypeProgress,
	"accordion": TypeAccordion,
	"badge":     TypeBadge,
	"separator": TypeSeparator,
}

// ParseType maps a wire type name onto the closed set. Matching is case
// insensitive; unrecognized names yield TypeUnknown.
func ParseType(name string) Type {
	t, ok := knownTypes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return TypeUnknown
	}
	return t
}

// SupportsSkeleton reports whether the type has a placeholder rendering and
// therefore must be introduced with an init status.
func (t Type) SupportsSkeleton() bool {
	return t != TypeText
}

// Status is a block's lifecycle stage.
type Status string

const (
	StatusInit     Status = "init"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	// StatusUpdate patches individual fields without advancing the
	// lifecycle.
	StatusUpdate Status = "update"
)

var (
	ErrMissingID     = errors.New("block id is required")
	ErrUnknownStatus = errors.New("unknown block status")
)

// ParseStatus validates a wire status. A missing status denotes a complete,
// static block and is treated as finished.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusFinished:
		return StatusFinished, nil
	case StatusInit:
		return StatusInit, nil
	case StatusRunning:
		return StatusRunning, nil
	case StatusUpdate:
		return StatusUpdate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Block is one structured unit of agent output. On the wire it is a flat
// JSON object: id, type and status plus the type-specific attributes.
type Block struct {
	ID     string
	Type   Type
	Status Status
	// TypeName is the type as it appeared on the wire; it only differs from
	// Type for unknown types.
	TypeName string
	// Props is nil when the block omitted its type (an update addressed by
	// id only); Fields still carries the attributes in that case.
	Props Props

	fields map[string]json.RawMessage
}

// New builds a block for a producer.
func New(id string, status Status, props Props) *Block {
	return &Block{
		ID:       id,
		Type:     props.Kind(),
		TypeName: string(props.Kind()),
		Status:   status,
		Props:    props,
	}
}

// NewID returns a short unique block id with the given prefix.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// Fields returns the attributes present on the block, keyed by wire name.
func (b *Block) Fields() (map[string]json.RawMessage, error) {
	if b.fields != nil {
		return b.fields, nil
	}
	if b.Props == nil {
		return map[string]json.RawMessage{}, nil
	}
	encoded, err := json.Marshal(b.Props)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Validate checks the parts of a block every consumer relies on.
func (b *Block) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrMissingID
	}
	if _, err := ParseStatus(string(b.Status)); err != nil {
		return err
	}
	return nil
}

type blockHeader struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var hdr blockHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	delete(fields, "id")
	delete(fields, "type")
	delete(fields, "status")

	status, err := ParseStatus(hdr.Status)
	if err != nil {
		return err
	}

	*b = Block{
		ID:       hdr.ID,
		Status:   status,
		TypeName: hdr.Type,
		fields:   fields,
	}
	if hdr.Type == "" {
		return nil
	}
	b.Type = ParseType(hdr.Type)
	b.Props, err = DecodeProps(b.Type, hdr.Type, fields)
	return err
}

func (b Block) MarshalJSON() ([]byte, error) {
	fields, err := b.Fields()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		out[k] = v
	}
	out["id"] = b.ID
	if b.TypeName != "" {
		out["type"] = b.TypeName
	} else if b.Type != "" {
		out["type"] = string(b.Type)
	}
	out["status"] = string(b.Status)
	return json.Marshal(out)
}
