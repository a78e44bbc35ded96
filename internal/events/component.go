/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package events

import "encoding/json"

// ComponentStart builds a component_start event. props may be nil.
func ComponentStart(source, id, component string, props any) (Event, error) {
	raw, err := marshalOptional(props)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:        TypeComponentStart,
		Source:      source,
		ComponentID: id,
		Component:   component,
		Props:       raw,
	}, nil
}

// ComponentUpdate builds a component_update event applying operation with
// data to the component.
func ComponentUpdate(source, id, operation string, data any) (Event, error) {
	raw, err := marshalOptional(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:        TypeComponentUpdate,
		Source:      source,
		ComponentID: id,
		Operation:   operation,
		Data:        raw,
	}, nil
}

// ComponentEnd builds a component_end event; finalProps may be nil to keep
// the streamed props.
func ComponentEnd(source, id string, finalProps any) (Event, error) {
	raw, err := marshalOptional(finalProps)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:        TypeComponentEnd,
		Source:      source,
		ComponentID: id,
		FinalProps:  raw,
	}, nil
}

func marshalOptional(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
