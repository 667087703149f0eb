package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/KimNorgaard/go-ryaml"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("ryaml.cli")

// collection is a mapping or a sequence of a document being edited.
type collection struct {
	m *ryaml.Mapping
	s *ryaml.Sequence
}

func rootCollection(doc *ryaml.Document) (collection, error) {
	if m, err := doc.Root(); err == nil {
		return collection{m: m}, nil
	}
	s, err := doc.RootSequence()
	if err != nil {
		return collection{}, err
	}
	return collection{s: s}, nil
}

// walk follows keys from the root. Sequence items are addressed by their
// index. With create set, missing mapping keys are added as empty mappings.
func walk(doc *ryaml.Document, keys []string, create bool) (collection, error) {
	c, err := rootCollection(doc)
	if err != nil {
		return collection{}, err
	}
	for _, key := range keys {
		if c, err = c.child(key, create); err != nil {
			return collection{}, err
		}
	}
	return c, nil
}

func (c collection) index(key string) (int, error) {
	i, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("%q is not a sequence index", key)
	}
	return i, nil
}

func (c collection) child(key string, create bool) (collection, error) {
	if c.s != nil {
		i, err := c.index(key)
		if err != nil {
			return collection{}, err
		}
		m, err := c.s.Mapping(i)
		if err == nil {
			return collection{m: m}, nil
		}
		if s, serr := c.s.Sequence(i); serr == nil {
			return collection{s: s}, nil
		}
		return collection{}, err
	}

	if create && !c.m.Has(key) {
		if err := c.m.Set(key, ryaml.Map{}); err != nil {
			return collection{}, err
		}
	}
	m, err := c.m.Mapping(key)
	if err == nil {
		return collection{m: m}, nil
	}
	if s, serr := c.m.Sequence(key); serr == nil {
		return collection{s: s}, nil
	}
	return collection{}, err
}

// set stores v under key. On a sequence, the index one past the end
// appends.
func (c collection) set(key string, v any) error {
	if c.m != nil {
		return c.m.Set(key, v)
	}
	i, err := c.index(key)
	if err != nil {
		return err
	}
	if i == c.s.Len() {
		return c.s.Append(v)
	}
	return c.s.Set(i, v)
}

func (c collection) delete(key string) error {
	if c.m != nil {
		if !c.m.Delete(key) {
			return fmt.Errorf("key %q not found", key)
		}
		return nil
	}
	i, err := c.index(key)
	if err != nil {
		return err
	}
	return c.s.Delete(i)
}

// apply runs edit on the document at path. With dryRun set the file is
// left alone and the changes edit would make are printed instead.
func apply(p *printer, path string, dryRun bool, edit func(*ryaml.Document) error, opts []ryaml.Option) error {
	if !dryRun {
		if err := ryaml.Modify(path, edit, opts...); err != nil {
			return err
		}
		log.Infof("updated %s", path)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	doc, err := ryaml.ParseForUpdate(data, path, opts...)
	if err != nil {
		return err
	}
	before := doc.String()
	if err := edit(doc); err != nil {
		return err
	}
	p.diff(before, doc.String())
	return nil
}
