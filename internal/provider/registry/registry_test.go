package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sublingo-ai/sublingo/internal/llm"
	"github.com/sublingo-ai/sublingo/internal/provider/registry"
)

// mockProvider is a mock implementation of llm.Provider for testing.
type mockProvider struct {
	name string
}

func (m *mockProvider) Complete(_ context.Context, _ llm.CompletionRequest) (string, error) {
	return "", nil
}

func (m *mockProvider) Name() string {
	return m.name
}

func TestRegistry_Register(t *testing.T) {
	t.Run("should register provider successfully", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(&mockProvider{name: "test-provider"})
		require.NoError(t, err)

		registered, err := reg.Get("test-provider")
		require.NoError(t, err)
		require.NotNil(t, registered)
		require.Equal(t, "test-provider", registered.Name())
	})

	t.Run("should return error when provider is nil", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "provider cannot be nil")
	})

	t.Run("should return error when provider name is empty", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(&mockProvider{name: ""})
		require.Error(t, err)
		require.Contains(t, err.Error(), "provider name cannot be empty")
	})

	t.Run("should return error when provider already registered", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(&mockProvider{name: "test-provider"})
		require.NoError(t, err)

		err = reg.Register(&mockProvider{name: "test-provider"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "already registered")
	})
}

func TestRegistry_Get(t *testing.T) {
	t.Run("should return error when provider name is empty", func(t *testing.T) {
		reg := registry.NewRegistry()

		_, err := reg.Get("")
		require.Error(t, err)
		require.Contains(t, err.Error(), "provider name cannot be empty")
	})

	t.Run("should return error when provider not found", func(t *testing.T) {
		reg := registry.NewRegistry()

		_, err := reg.Get("nonexistent")
		require.Error(t, err)
		require.Contains(t, err.Error(), "not found")
	})
}

func TestRegistry_List(t *testing.T) {
	t.Run("should return empty list when no providers registered", func(t *testing.T) {
		reg := registry.NewRegistry()

		require.Empty(t, reg.List())
	})

	t.Run("should return all registered providers sorted", func(t *testing.T) {
		reg := registry.NewRegistry()

		for _, name := range []string{"openai", "echo", "anthropic"} {
			require.NoError(t, reg.Register(&mockProvider{name: name}))
		}

		require.Equal(t, []string{"anthropic", "echo", "openai"}, reg.List())
	})
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Run("should handle concurrent registrations safely", func(t *testing.T) {
		reg := registry.NewRegistry()

		done := make(chan bool)

		for i := 0; i < 10; i++ {
			go func(idx int) {
				provider := &mockProvider{name: string(rune('a' + idx))}
				_ = reg.Register(provider)
				done <- true
			}(i)
		}

		for i := 0; i < 10; i++ {
			<-done
		}

		require.Len(t, reg.List(), 10)
	})
}
