package ai

import (
	"fmt"
	"strings"
	"sync"
)

const DefaultModel = "mistralai/mistral-7b-instruct"

// Model is a selectable completion model.
type Model struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Catalog is the ordered set of models users may pick from.
type Catalog struct {
	mu     sync.RWMutex
	models []Model
	byID   map[string]Model
}

func NewCatalog(models ...Model) *Catalog {
	c := &Catalog{byID: make(map[string]Model)}
	for _, m := range models {
		c.Register(m)
	}
	return c
}

// DefaultCatalog returns the built-in OpenRouter model list.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Model{Name: "Mistral 7B", ID: DefaultModel},
		Model{Name: "Llama 3.3 70B", ID: "meta-llama/llama-3.3-70b-instruct"},
		Model{Name: "GPT-3.5 Turbo", ID: "openai/gpt-3.5-turbo"},
		Model{Name: "Mixtral 8x7B", ID: "mistralai/mixtral-8x7b-instruct"},
	)
}

// Register adds a model, replacing any entry with the same id.
func (c *Catalog) Register(m Model) {
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		return
	}
	if m.Name == "" {
		m.Name = m.ID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[m.ID]; !ok {
		c.models = append(c.models, m)
	} else {
		for i := range c.models {
			if c.models[i].ID == m.ID {
				c.models[i] = m
			}
		}
	}
	c.byID[m.ID] = m
}

// Lookup resolves a model by id, or by display name case-insensitively.
func (c *Catalog) Lookup(idOrName string) (Model, error) {
	key := strings.TrimSpace(idOrName)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.byID[key]; ok {
		return m, nil
	}
	for _, m := range c.models {
		if strings.EqualFold(m.Name, key) {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("unknown model: %s", key)
}

func (c *Catalog) List() []Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Model(nil), c.models...)
}

// DisplayName falls back to the provider prefix ("mistralai") for models
// that are not in the catalog.
func (c *Catalog) DisplayName(id string) string {
	if m, err := c.Lookup(id); err == nil {
		return m.Name
	}
	if i := strings.Index(id, "/"); i > 0 {
		return id[:i]
	}
	return id
}
