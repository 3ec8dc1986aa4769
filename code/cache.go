package code

import "errors"

var ErrOwnerBound = errors.New("owner already holds a code")

// Cache is a bijection between owners and room codes.
// It is not safe for concurrent use; callers serialize access.
type Cache[O comparable] struct {
	codes     map[O]string
	owners    map[string]O
	generator *Generator
}

func NewCache[O comparable](generator *Generator) *Cache[O] {
	if generator == nil {
		generator = NewGenerator(nil)
	}
	return &Cache[O]{
		codes:     make(map[O]string),
		owners:    make(map[string]O),
		generator: generator,
	}
}

// Bind allocates a fresh code for owner.
func (c *Cache[O]) Bind(owner O) (string, error) {
	if _, bound := c.codes[owner]; bound {
		return "", ErrOwnerBound
	}
	code, err := c.generator.Allocate(func(candidate string) bool {
		_, taken := c.owners[candidate]
		return taken
	})
	if err != nil {
		return "", err
	}
	c.link(owner, code)
	return code, nil
}

// BindWithCode binds owner to an existing code without allocating.
// The code must already have been released by its previous owner.
func (c *Cache[O]) BindWithCode(owner O, code string) {
	if previous, bound := c.owners[code]; bound {
		delete(c.codes, previous)
	}
	if old, bound := c.codes[owner]; bound {
		delete(c.owners, old)
	}
	c.link(owner, code)
}

func (c *Cache[O]) link(owner O, code string) {
	c.codes[owner] = code
	c.owners[code] = owner
}

func (c *Cache[O]) Unbind(owner O) {
	code, bound := c.codes[owner]
	if !bound {
		return
	}
	delete(c.codes, owner)
	delete(c.owners, code)
}

func (c *Cache[O]) CodeOf(owner O) (string, bool) {
	code, ok := c.codes[owner]
	return code, ok
}

func (c *Cache[O]) OwnerOf(code string) (O, bool) {
	owner, ok := c.owners[code]
	return owner, ok
}

func (c *Cache[O]) Len() int {
	return len(c.codes)
}
