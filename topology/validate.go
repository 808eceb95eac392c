package topology

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// attrCheck validates one well-known link attribute.
type attrCheck func(l Link, name string) error

var knownAttrs = map[string]attrCheck{
	"bw":               positive,
	"loss":             percentage,
	"delay":            nonNegative,
	"max_queue_number": nonNegativeInt,
}

// Validate checks the attributes the emulation engine interprets. Unknown
// columns are passed through untouched.
func (d *Descriptor) Validate() error {
	var errs []error
	for _, link := range d.Links {
		if link.From == link.To {
			errs = append(errs, fmt.Errorf("%w: link %s:%s is a self loop", ErrInvalidAttribute, link.From, link.To))
		}
		for _, a := range link.Attrs {
			check, ok := knownAttrs[a.Name]
			if !ok {
				continue
			}
			if err := check(link, a.Name); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func positive(l Link, name string) error {
	v, err := l.Float(name)
	if err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("%w: link %s:%s %s=%v must be positive", ErrInvalidAttribute, l.From, l.To, name, v)
	}
	return nil
}

func nonNegative(l Link, name string) error {
	v, err := l.Float(name)
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%w: link %s:%s %s=%v must not be negative", ErrInvalidAttribute, l.From, l.To, name, v)
	}
	return nil
}

func percentage(l Link, name string) error {
	v, err := l.Float(name)
	if err != nil {
		return err
	}
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: link %s:%s %s=%v must be within [0,100]", ErrInvalidAttribute, l.From, l.To, name, v)
	}
	return nil
}

func nonNegativeInt(l Link, name string) error {
	raw, _ := l.Attr(name)
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v < 0 {
		return fmt.Errorf("%w: link %s:%s %s=%q must be a non-negative integer", ErrInvalidAttribute, l.From, l.To, name, raw)
	}
	return nil
}
