// Package services provides a service registry for decoupled module communication
package services

import (
	"fmt"
	"sync"
)

// Registry manages service registrations and lookups
type Registry struct {
	services map[string]interface{}
	mu       sync.RWMutex
}

// Global registry instance
var globalRegistry = &Registry{
	services: make(map[string]interface{}),
}

// Register registers a service with the given name
func Register(name string, service interface{}) error {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	globalRegistry.services[name] = service
	return nil
}

// Get retrieves a service by name
func Get(name string) (interface{}, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	service, exists := globalRegistry.services[name]
	if !exists {
		return nil, fmt.Errorf("service %s not found", name)
	}

	return service, nil
}

// List returns all registered service names
func List() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	names := make([]string, 0, len(globalRegistry.services))
	for name := range globalRegistry.services {
		names = append(names, name)
	}

	return names
}

// Clear removes all registered services (mainly for testing)
func Clear() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	globalRegistry.services = make(map[string]interface{})
}
