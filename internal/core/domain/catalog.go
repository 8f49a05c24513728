package domain

import (
	"fmt"
	"strings"
)

var builtinEffects = []Effect{
	{ID: "grayscale", Name: "Grayscale", Description: "Convert image to black and white"},
	{ID: "sepia", Name: "Sepia", Description: "Apply a vintage sepia tone"},
	{ID: "blur", Name: "Blur", Description: "Apply a gaussian blur effect"},
	{ID: "contour", Name: "Contour", Description: "Highlight contours in the image"},
	{ID: "edge_enhance", Name: "Edge Enhance", Description: "Enhance edges in the image"},
	{ID: "emboss", Name: "Emboss", Description: "Create an embossed effect"},
	{ID: "sharpen", Name: "Sharpen", Description: "Increase image sharpness"},
	{ID: "brightness", Name: "Brightness", Description: "Increase image brightness"},
	{ID: "contrast", Name: "Contrast", Description: "Enhance image contrast"},
	{ID: "negative", Name: "Negative", Description: "Invert image colors"},
	{ID: "sketch", Name: "Sketch", Description: "Convert image to pencil sketch"},
	{ID: "oil_painting", Name: "Oil Painting", Description: "Create an oil painting effect"},
	{ID: "vintage", Name: "Vintage", Description: "Add a vintage film look"},
}

// Catalog is the closed, ordered set of effects the backend is known to accept.
type Catalog struct {
	effects []Effect
	index   map[string]int
}

// DefaultCatalog returns every built-in effect.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(nil)
	return c
}

// NewCatalog builds a catalog restricted to ids, in the given order. An empty ids
// selects every built-in effect.
func NewCatalog(ids []string) (*Catalog, error) {
	if len(ids) == 0 {
		ids = make([]string, len(builtinEffects))
		for i, e := range builtinEffects {
			ids[i] = e.ID
		}
	}

	c := &Catalog{index: make(map[string]int, len(ids))}

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, dup := c.index[id]; dup {
			continue
		}

		effect, ok := findBuiltin(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, id)
		}

		c.index[id] = len(c.effects)
		c.effects = append(c.effects, effect)
	}

	if len(c.effects) == 0 {
		return nil, ErrEmptyCatalog
	}

	return c, nil
}

func findBuiltin(id string) (Effect, bool) {
	for _, e := range builtinEffects {
		if e.ID == id {
			return e, true
		}
	}

	return Effect{}, false
}

func (c *Catalog) List() []Effect {
	out := make([]Effect, len(c.effects))
	copy(out, c.effects)
	return out
}

func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.effects))
	for i, e := range c.effects {
		ids[i] = e.ID
	}
	return ids
}

func (c *Catalog) ByID(id string) (Effect, bool) {
	i, ok := c.index[id]
	if !ok {
		return Effect{}, false
	}

	return c.effects[i], true
}

func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// DisplayName returns the effect's human label, or id itself when the effect is unknown.
func (c *Catalog) DisplayName(id string) string {
	if e, ok := c.ByID(id); ok {
		return e.Name
	}

	return id
}
