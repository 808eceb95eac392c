// Package topology reads the link table that describes an experiment network
// and renders it into the ini-like description consumed by the emulation
// engine.
//
// A link table is a CSV file whose header is "from,to,<attr>...". Every
// following row is one link; the attribute columns are schema-free and are
// carried through verbatim:
//
//	from,to,bw,loss,delay,max_queue_number
//	con0,agg0,100,0,10,10000
//
// renders as
//
//	[nodes]
//	agg0:_
//	con0:_
//
//	[links]
//	con0:agg0 bw=100 loss=0 delay=10 max_queue_number=10000
package topology

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// NodeID identifies an emulated host.
type NodeID string

// Attr is one attribute column of a link row.
type Attr struct {
	Name  string
	Value string
}

// Link is one row of the link table.
type Link struct {
	From  NodeID
	To    NodeID
	Attrs []Attr
}

// Attr returns the raw value of the named attribute.
func (l Link) Attr(name string) (string, bool) {
	for _, a := range l.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Float parses the named attribute as a number.
func (l Link) Float(name string) (float64, error) {
	raw, ok := l.Attr(name)
	if !ok {
		return 0, fmt.Errorf("%w: link %s:%s has no %q", ErrInvalidAttribute, l.From, l.To, name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: link %s:%s %s=%q is not a number", ErrInvalidAttribute, l.From, l.To, name, raw)
	}
	return v, nil
}

// Descriptor is the parsed link table. Nodes are sorted and unique, Links
// keep the order of the source rows.
type Descriptor struct {
	Header []string
	Nodes  []NodeID
	Links  []Link
}

// ParseFile parses the link table at path.
func ParseFile(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse reads a link table.
func Parse(r io.Reader) (*Descriptor, error) {
	reader := csv.NewReader(r)
	// column counts are checked below so the error can carry our sentinel
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, parseErr)
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedTable)
	}

	header := rows[0]
	if len(header) < 2 ||
		!strings.EqualFold(strings.TrimSpace(header[0]), "from") ||
		!strings.EqualFold(strings.TrimSpace(header[1]), "to") {
		return nil, fmt.Errorf("%w: header must start with from,to: %q", ErrMalformedTable, strings.Join(header, ","))
	}

	d := &Descriptor{
		Header: header,
		Links:  make([]Link, 0, len(rows)-1),
	}
	seen := make(map[NodeID]struct{})

	for i, row := range rows[1:] {
		line := i + 2
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: line %d has %d columns, header has %d", ErrMalformedTable, line, len(row), len(header))
		}

		from := NodeID(strings.TrimSpace(row[0]))
		to := NodeID(strings.TrimSpace(row[1]))
		if from == "" || to == "" {
			return nil, fmt.Errorf("%w: line %d has an empty endpoint", ErrMalformedTable, line)
		}

		link := Link{From: from, To: to, Attrs: make([]Attr, 0, len(header)-2)}
		for col := 2; col < len(header); col++ {
			link.Attrs = append(link.Attrs, Attr{Name: header[col], Value: row[col]})
		}
		d.Links = append(d.Links, link)

		seen[from] = struct{}{}
		seen[to] = struct{}{}
	}

	d.Nodes = make([]NodeID, 0, len(seen))
	for id := range seen {
		d.Nodes = append(d.Nodes, id)
	}
	slices.Sort(d.Nodes)

	return d, nil
}

// Render writes the emulation topology description.
func (d *Descriptor) Render(w io.Writer) error {
	var b strings.Builder
	b.WriteString("[nodes]\n")
	for _, node := range d.Nodes {
		fmt.Fprintf(&b, "%s:_\n", node)
	}

	b.WriteString("\n[links]\n")
	for _, link := range d.Links {
		fmt.Fprintf(&b, "%s:%s", link.From, link.To)
		if len(link.Attrs) > 0 {
			pairs := make([]string, 0, len(link.Attrs))
			for _, a := range link.Attrs {
				pairs = append(pairs, a.Name+"="+a.Value)
			}
			b.WriteString(" " + strings.Join(pairs, " "))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Bytes returns the rendered description.
func (d *Descriptor) Bytes() []byte {
	var buf bytes.Buffer
	// writes to a bytes.Buffer cannot fail
	_ = d.Render(&buf)
	return buf.Bytes()
}

// HasNode reports whether id appears in any link.
func (d *Descriptor) HasNode(id NodeID) bool {
	_, found := slices.BinarySearch(d.Nodes, id)
	return found
}
