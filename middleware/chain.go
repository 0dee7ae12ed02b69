// Package middleware composes named http middleware in a fixed order.
package middleware

import (
	"fmt"
	"net/http"
	"slices"
)

// Middleware wraps a handler.
type Middleware func(next http.Handler) http.Handler

type namedMiddleware struct {
	name string
	mw   Middleware
}

// Chain is an ordered list of named middleware. The first entry is the
// outermost, i.e. it sees the request first. The zero value is an empty chain.
type Chain struct {
	entries []namedMiddleware
}

func (c *Chain) Append(name string, mw Middleware) {
	c.entries = append(c.entries, namedMiddleware{name: name, mw: mw})
}

func (c *Chain) Prepend(name string, mw Middleware) {
	c.entries = slices.Insert(c.entries, 0, namedMiddleware{name: name, mw: mw})
}

// InsertBefore adds mw as name, directly before the entry called before.
func (c *Chain) InsertBefore(before, name string, mw Middleware) error {
	i, err := c.index(before)
	if err != nil {
		return err
	}
	c.entries = slices.Insert(c.entries, i, namedMiddleware{name: name, mw: mw})
	return nil
}

// InsertAfter adds mw as name, directly after the entry called after.
func (c *Chain) InsertAfter(after, name string, mw Middleware) error {
	i, err := c.index(after)
	if err != nil {
		return err
	}
	c.entries = slices.Insert(c.entries, i+1, namedMiddleware{name: name, mw: mw})
	return nil
}

func (c *Chain) Remove(name string) error {
	i, err := c.index(name)
	if err != nil {
		return err
	}
	c.entries = slices.Delete(c.entries, i, i+1)
	return nil
}

func (c *Chain) Replace(name string, mw Middleware) error {
	i, err := c.index(name)
	if err != nil {
		return err
	}
	c.entries[i].mw = mw
	return nil
}

// List returns the entry names, outermost first.
func (c *Chain) List() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}

// Handler returns a new handler that applies the middleware chain to the
// provided handler.
func (c *Chain) Handler(h http.Handler) http.Handler {
	if c == nil {
		return h
	}
	for i := len(c.entries) - 1; i >= 0; i-- {
		h = c.entries[i].mw(h)
	}
	return h
}

func (c *Chain) index(name string) (int, error) {
	i := slices.IndexFunc(c.entries, func(e namedMiddleware) bool { return e.name == name })
	if i < 0 {
		return -1, fmt.Errorf("handler %s not found", name)
	}
	return i, nil
}
