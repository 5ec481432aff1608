package collectors

import (
	"fmt"
	"sort"
)

// Collector fetches raw share links from one source.
type Collector interface {
	Collect(config map[string]interface{}) ([]string, error)
}

type Factory func() Collector

var registry = make(map[string]Factory)

func Register(name string, factory Factory) {
	registry[name] = factory
}

func Get(name string) (Collector, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("collector plugin '%s' not found", name)
	}
	return factory(), nil
}

// Names lists the registered collector types.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StringParam reads a required string param.
func StringParam(config map[string]interface{}, key string) (string, error) {
	v, ok := config[key]
	if !ok {
		return "", fmt.Errorf("missing '%s' in collector config", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("'%s' must be a non-empty string", key)
	}
	return s, nil
}
