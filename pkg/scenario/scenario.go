// Package scenario loads declarative flowgraph descriptions and turns them
// into runnable graphs. A scenario document has three required sections:
// components (name -> type and constructor arguments), connections (ordered
// source/port/target/port tuples), and simulation (the termination policy).
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/geontech/grflow/pkg/registry"
)

// Sentinel errors for scenario validation.
var (
	ErrMissingSection  = errors.New("missing required section")
	ErrUnknownRunMode  = errors.New("unknown simulation type")
	ErrUnknownEndpoint = errors.New("connection references undeclared component")
	ErrBadConnection   = errors.New("malformed connection")
)

var requiredSections = []string{"components", "connections", "simulation"}

// Component declares one block: its registry type name and the keyword
// arguments handed to the constructor.
type Component struct {
	Type string        `json:"type"`
	Args registry.Args `json:"args"`
}

// Port is one endpoint port of a connection: a numeric index for streaming
// ports, a symbolic name for message ports. The JSON value's own type picks
// which.
type Port struct {
	Index int
	Name  string
	msg   bool
}

// StreamPort makes a numeric streaming port.
func StreamPort(i int) Port { return Port{Index: i} }

// MsgPort makes a named message port.
func MsgPort(name string) Port { return Port{Name: name, msg: true} }

// IsMessage reports whether the port addresses the message domain.
func (p Port) IsMessage() bool { return p.msg }

func (p Port) String() string {
	if p.msg {
		return p.Name
	}
	return fmt.Sprintf("%d", p.Index)
}

// UnmarshalJSON accepts either a number or a string.
func (p *Port) UnmarshalJSON(data []byte) error {
	var idx int
	if err := json.Unmarshal(data, &idx); err == nil {
		*p = StreamPort(idx)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = MsgPort(name)
		return nil
	}
	return fmt.Errorf("%w: port must be an integer or a string, got %s", ErrBadConnection, data)
}

// MarshalJSON emits the wire form the parser accepts.
func (p Port) MarshalJSON() ([]byte, error) {
	if p.msg {
		return json.Marshal(p.Name)
	}
	return json.Marshal(p.Index)
}

// Connection is an ordered source/port/target/port tuple.
type Connection struct {
	Src     string
	SrcPort Port
	Dst     string
	DstPort Port
}

// UnmarshalJSON decodes the 4-element tuple form.
func (c *Connection) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("%w: %v", ErrBadConnection, err)
	}
	if len(tuple) != 4 {
		return fmt.Errorf("%w: want 4 elements, got %d", ErrBadConnection, len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &c.Src); err != nil {
		return fmt.Errorf("%w: source name: %v", ErrBadConnection, err)
	}
	if err := c.SrcPort.UnmarshalJSON(tuple[1]); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[2], &c.Dst); err != nil {
		return fmt.Errorf("%w: target name: %v", ErrBadConnection, err)
	}
	return c.DstPort.UnmarshalJSON(tuple[3])
}

// MarshalJSON emits the tuple form.
func (c Connection) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Src, c.SrcPort, c.Dst, c.DstPort})
}

// SimValue carries the mode-specific simulation parameters. Only the time
// mode has one; a data-bounded run gets its limit from a head block in the
// graph.
type SimValue struct {
	Duration float64 `json:"duration"`
}

// Simulation is the run-mode record: "time", "user" or "data" plus value.
type Simulation struct {
	Type  string   `json:"type"`
	Value SimValue `json:"value"`
}

// Scenario is a parsed flowgraph description.
type Scenario struct {
	Components  map[string]Component `json:"components"`
	Connections []Connection         `json:"connections"`
	Simulation  Simulation           `json:"simulation"`
}

// Load reads a scenario document from disk, picking the format from the file
// extension (.yaml/.yml, anything else is treated as JSON).
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// Parse decodes a JSON scenario. Section presence is checked before anything
// is decoded in depth, so a missing section fails with a lookup error and no
// partial construction happens downstream.
func Parse(data []byte) (*Scenario, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for _, key := range requiredSections {
		if _, ok := sections[key]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingSection, key)
		}
	}

	var sc Scenario
	if err := json.Unmarshal(sections["components"], &sc.Components); err != nil {
		return nil, fmt.Errorf("parse components: %w", err)
	}
	if err := json.Unmarshal(sections["connections"], &sc.Connections); err != nil {
		return nil, fmt.Errorf("parse connections: %w", err)
	}
	if err := json.Unmarshal(sections["simulation"], &sc.Simulation); err != nil {
		return nil, fmt.Errorf("parse simulation: %w", err)
	}
	return &sc, nil
}

// ParseYAML decodes a YAML scenario by converting it to JSON first, so both
// formats share one validation path.
func ParseYAML(data []byte) (*Scenario, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return Parse(jsonData)
}

// Validate checks the cross-references a build would hit: every connection
// endpoint must name a declared component, and the two ports of a connection
// must live in the same domain.
func (sc *Scenario) Validate() error {
	for _, conn := range sc.Connections {
		if _, ok := sc.Components[conn.Src]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownEndpoint, conn.Src)
		}
		if _, ok := sc.Components[conn.Dst]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownEndpoint, conn.Dst)
		}
		if conn.SrcPort.IsMessage() != conn.DstPort.IsMessage() {
			return fmt.Errorf("%w: %s:%s -> %s:%s mixes stream and message ports",
				ErrBadConnection, conn.Src, conn.SrcPort, conn.Dst, conn.DstPort)
		}
	}
	return nil
}
