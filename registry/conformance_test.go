package registry_test

import (
	"testing"

	"github.com/go-slark/svcindex/registry"
	"github.com/go-slark/svcindex/registry/registrytest"
)

func TestMemoryStoreConformance(t *testing.T) {
	registrytest.Run(t, func(*testing.T) registry.Store { return registry.NewMemoryStore() })
}
