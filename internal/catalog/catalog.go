package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Package is one purchasable credit bundle. Prices are integer cents; the
// Stripe checkout session is created from these values, never from client
// input.
type Package struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Credits    int    `json:"credits"`
	Currency   string `json:"currency"`
}

type packagesFile struct {
	Packages []Package `json:"packages"`
}

// Catalog is the in-memory credit package registry.
type Catalog struct {
	mu       sync.RWMutex
	packages map[string]*Package
	order    []string
}

func New() *Catalog {
	return &Catalog{packages: make(map[string]*Package)}
}

// Default returns the built-in catalog used when no packages file is
// configured.
func Default() *Catalog {
	c := New()
	c.Register(&Package{ID: "starter", Name: "Starter", PriceCents: 590, Credits: 20, Currency: "usd"})
	c.Register(&Package{ID: "standard", Name: "Standard", PriceCents: 990, Credits: 50, Currency: "usd"})
	c.Register(&Package{ID: "pro", Name: "Pro", PriceCents: 1990, Credits: 120, Currency: "usd"})
	return c
}

func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read packages file: %w", err)
	}

	var file packagesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse packages file: %w", err)
	}
	if len(file.Packages) == 0 {
		return nil, fmt.Errorf("packages file %s contains no packages", path)
	}

	c := New()
	for i := range file.Packages {
		p := &file.Packages[i]
		if p.ID == "" || p.PriceCents <= 0 || p.Credits <= 0 {
			return nil, fmt.Errorf("invalid package %q in %s", p.ID, path)
		}
		if p.Currency == "" {
			p.Currency = "usd"
		}
		c.Register(p)
	}
	return c, nil
}

func (c *Catalog) Register(p *Package) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.packages[p.ID]; !ok {
		c.order = append(c.order, p.ID)
	}
	c.packages[p.ID] = p
}

func (c *Catalog) Get(id string) *Package {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.packages[id]
}

func (c *Catalog) Exists(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.packages[id]
	return ok
}

// All returns packages in registration order.
func (c *Catalog) All() []*Package {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]*Package, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.packages[id])
	}
	return result
}
