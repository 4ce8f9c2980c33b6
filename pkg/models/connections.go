package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// ConnectionTarget is one fan-out entry of a node's output slot.
type ConnectionTarget struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Edge is a single flattened adjacency entry.
type Edge struct {
	Source string
	Output string
	Target ConnectionTarget
}

// NodeOutputs maps a node's output slot names to their targets. Slot names and targets
// keep insertion order; targets order is the execution fan-out order.
type NodeOutputs struct {
	names []string
	slots map[string][]ConnectionTarget
}

// Append adds a target to the end of the named output slot.
func (o *NodeOutputs) Append(output string, target ConnectionTarget) {
	if o.slots == nil {
		o.slots = make(map[string][]ConnectionTarget)
	}

	if _, ok := o.slots[output]; !ok {
		o.names = append(o.names, output)
	}

	o.slots[output] = append(o.slots[output], target)
}

// Names returns the output slot names in insertion order.
func (o *NodeOutputs) Names() []string {
	if o == nil {
		return nil
	}

	return slices.Clone(o.names)
}

// Targets returns the targets of an output slot in fan-out order.
func (o *NodeOutputs) Targets(output string) []ConnectionTarget {
	if o == nil {
		return nil
	}

	return slices.Clone(o.slots[output])
}

func (o *NodeOutputs) set(output string, targets []ConnectionTarget) {
	if o.slots == nil {
		o.slots = make(map[string][]ConnectionTarget)
	}

	if _, ok := o.slots[output]; !ok {
		o.names = append(o.names, output)
	}

	o.slots[output] = targets
}

// MarshalJSON writes the slots as a JSON object in insertion order.
func (o NodeOutputs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, name := range o.names {
		if i > 0 {
			buf.WriteByte(',')
		}

		targets := o.slots[name]
		if targets == nil {
			targets = []ConnectionTarget{}
		}

		if err := writeMember(&buf, name, targets); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of output slots, keeping the document order.
func (o *NodeOutputs) UnmarshalJSON(data []byte) error {
	*o = NodeOutputs{}

	return decodeOrderedObject(data, func(name string, raw json.RawMessage) error {
		var targets []ConnectionTarget
		if err := json.Unmarshal(raw, &targets); err != nil {
			return fmt.Errorf("output %q: %w", name, err)
		}

		o.set(name, targets)

		return nil
	})
}

// Connections is the adjacency form of a workflow's edges: source node id, then output
// slot name, then ordered targets. Source order is preserved as well.
type Connections struct {
	sources []string
	outputs map[string]*NodeOutputs
}

// Append adds target to connections[source][output].
func (c *Connections) Append(source, output string, target ConnectionTarget) {
	c.outputsFor(source).Append(output, target)
}

// Sources returns the source node ids in insertion order.
func (c *Connections) Sources() []string {
	return slices.Clone(c.sources)
}

// Outputs returns the output slots of a source node, or nil when it has none.
func (c *Connections) Outputs(source string) *NodeOutputs {
	return c.outputs[source]
}

// Len returns the number of source nodes.
func (c *Connections) Len() int {
	return len(c.sources)
}

// Edges flattens the adjacency map: sources, then output names, then target order.
func (c *Connections) Edges() []Edge {
	edges := make([]Edge, 0)

	for _, source := range c.sources {
		outputs := c.outputs[source]
		for _, name := range outputs.names {
			for _, target := range outputs.slots[name] {
				edges = append(edges, Edge{Source: source, Output: name, Target: target})
			}
		}
	}

	return edges
}

func (c *Connections) outputsFor(source string) *NodeOutputs {
	if c.outputs == nil {
		c.outputs = make(map[string]*NodeOutputs)
	}

	outputs, ok := c.outputs[source]
	if !ok {
		outputs = &NodeOutputs{}
		c.outputs[source] = outputs
		c.sources = append(c.sources, source)
	}

	return outputs
}

// MarshalJSON writes the adjacency map as nested JSON objects in insertion order.
func (c Connections) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, source := range c.sources {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := writeMember(&buf, source, c.outputs[source]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON reads the adjacency map keeping the document order of keys.
func (c *Connections) UnmarshalJSON(data []byte) error {
	*c = Connections{}

	return decodeOrderedObject(data, func(source string, raw json.RawMessage) error {
		outputs := c.outputsFor(source)
		if err := outputs.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("connections of %q: %w", source, err)
		}

		return nil
	})
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	encodedKey, err := json.Marshal(key)
	if err != nil {
		return err
	}

	encodedValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	buf.Write(encodedKey)
	buf.WriteByte(':')
	buf.Write(encodedValue)

	return nil
}

// decodeOrderedObject walks the members of a JSON object in document order. A JSON null
// is treated as an empty object.
func decodeOrderedObject(data []byte, member func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if tok == nil {
		return nil
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		if err := member(key, raw); err != nil {
			return err
		}
	}

	_, err = dec.Token()

	return err
}
