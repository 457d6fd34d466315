package item

import "fmt"

// Catalog holds all loaded item definitions indexed by ID.
type Catalog struct {
	items map[string]*Def
}

// NewCatalog returns an empty Catalog.
//
// Postcondition: the internal map is initialised.
func NewCatalog() *Catalog {
	return &Catalog{items: make(map[string]*Def)}
}

// Register adds d to the catalog.
//
// Precondition:  d must not be nil and must have passed Validate.
// Postcondition: Item(d.ID) returns (d, true); returns error if d.ID already registered.
func (c *Catalog) Register(d *Def) error {
	if _, exists := c.items[d.ID]; exists {
		return fmt.Errorf("item: Catalog.Register: item ID %q already registered", d.ID)
	}
	c.items[d.ID] = d
	return nil
}

// Item returns the Def for the given id.
//
// Postcondition: Returns (def, true) if found, or (nil, false) otherwise.
func (c *Catalog) Item(id string) (*Def, bool) {
	d, ok := c.items[id]
	return d, ok
}

// Len returns the number of registered items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// LoadCatalog loads all item definitions from dir into a new Catalog.
//
// Precondition: dir is a readable directory of item YAML files.
// Postcondition: Returns a Catalog containing every valid Def, or an error.
func LoadCatalog(dir string) (*Catalog, error) {
	defs, err := LoadDefs(dir)
	if err != nil {
		return nil, err
	}
	cat := NewCatalog()
	for _, d := range defs {
		if err := cat.Register(d); err != nil {
			return nil, err
		}
	}
	return cat, nil
}
