// Package catalog maps CanFly identifiers to names and declared types.
//
// A catalog is loaded from TOML:
//
//	[[param]]
//	name = "indicated_airspeed"
//	id = 320
//	type = "int16"
//	description = "Indicated airspeed, knots"
//
// Decoding a message through the catalog coerces its value to the declared
// type, so a sender may publish a float for an int16 parameter as long as the
// value fits.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/notnil/canfly"
)

// Entry describes one identifier.
type Entry struct {
	Name        string
	ID          uint16
	Type        canfly.Type
	Description string
}

// Catalog is an immutable set of entries indexed by id and name.
type Catalog struct {
	byID   map[uint16]Entry
	byName map[string]Entry
}

// ErrUnknownID is returned when a message id has no catalog entry.
var ErrUnknownID = errors.New("catalog: unknown id")

type fileEntry struct {
	Name        string `toml:"name"`
	ID          int64  `toml:"id"`
	Type        string `toml:"type"`
	Description string `toml:"description"`
}

type file struct {
	Param []fileEntry `toml:"param"`
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	c, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes catalog TOML. Unknown keys, duplicate ids or names, ids
// outside the data band and unknown type names are errors.
func Parse(data string) (*Catalog, error) {
	var raw file
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse catalog: unknown keys %s", strings.Join(keys, ", "))
	}

	entries := make([]Entry, 0, len(raw.Param))
	for i, p := range raw.Param {
		e, err := p.entry()
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return New(entries...)
}

func (p fileEntry) entry() (Entry, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return Entry{}, errors.New("missing name")
	}
	if p.ID < 0 || p.ID >= canfly.IDInternalFirst {
		return Entry{}, fmt.Errorf("%s: id %d outside the data band 0..%d", name, p.ID, canfly.IDInternalFirst-1)
	}
	typ, err := canfly.ParseType(strings.TrimSpace(p.Type))
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", name, err)
	}
	return Entry{Name: name, ID: uint16(p.ID), Type: typ, Description: p.Description}, nil
}

// New builds a catalog from entries.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{
		byID:   make(map[uint16]Entry, len(entries)),
		byName: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		if _, ok := e.Type.Kind(); !ok || e.Type == canfly.TypeBinary {
			return nil, fmt.Errorf("%s: type %s cannot be declared", e.Name, e.Type)
		}
		if prev, ok := c.byID[e.ID]; ok {
			return nil, fmt.Errorf("%s: id %d already used by %s", e.Name, e.ID, prev.Name)
		}
		if _, ok := c.byName[e.Name]; ok {
			return nil, fmt.Errorf("duplicate name %s", e.Name)
		}
		c.byID[e.ID] = e
		c.byName[e.Name] = e
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.byID) }

// ByID looks up an entry by identifier.
func (c *Catalog) ByID(id uint16) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// ByName looks up an entry by name.
func (c *Catalog) ByName(name string) (Entry, bool) {
	e, ok := c.byName[name]
	return e, ok
}

// Entries returns all entries ordered by id.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.byID))
	for _, e := range c.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Decode decodes m and coerces the value to the kind of its entry's declared
// type.
func (c *Catalog) Decode(m canfly.Message) (Entry, canfly.Variant, error) {
	e, ok := c.byID[m.ID()]
	if !ok {
		return Entry{}, canfly.Variant{}, fmt.Errorf("%w: 0x%03X", ErrUnknownID, m.ID())
	}
	v, err := canfly.Decode(m)
	if err != nil {
		return e, canfly.Variant{}, err
	}
	kind, _ := e.Type.Kind()
	if kind == canfly.KindNone {
		if !v.IsNone() {
			return e, canfly.Variant{}, fmt.Errorf("%w: %s declares no data", canfly.ErrBadType, e.Name)
		}
		return e, v, nil
	}
	cv, err := canfly.Coerce(v, kind)
	if err != nil {
		return e, canfly.Variant{}, fmt.Errorf("%s: %w", e.Name, err)
	}
	return e, cv, nil
}

// Encode builds the message for the named entry, coercing v to its declared
// type.
func (c *Catalog) Encode(name string, v canfly.Variant) (canfly.Message, error) {
	e, ok := c.byName[name]
	if !ok {
		return canfly.Message{}, fmt.Errorf("catalog: unknown name %q", name)
	}
	return canfly.EncodeAs(e.ID, v, e.Type)
}

// Describe renders a message using the catalog, falling back to the raw
// message when the id is unknown or the value does not decode.
func (c *Catalog) Describe(m canfly.Message) string {
	e, v, err := c.Decode(m)
	if err != nil {
		return m.String()
	}
	return fmt.Sprintf("%s=%s", e.Name, v)
}
