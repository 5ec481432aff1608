package publishers

import (
	"fmt"

	"linkguard/internal/model"
)

// Publisher delivers a subscription built from stored links.
type Publisher interface {
	Publish(links []model.Link, config map[string]interface{}) error
}

type Factory func() Publisher

var registry = make(map[string]Factory)

func Register(name string, factory Factory) {
	registry[name] = factory
}

func Get(name string) (Publisher, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("publisher plugin '%s' not found", name)
	}
	return factory(), nil
}
