package directory

import (
	"context"
	"errors"

	"github.com/spec-kit/jira-gateway/internal/config"
	"github.com/spec-kit/jira-gateway/internal/domain"
)

// ErrUnknownKey is returned when a presented API key is not in the directory.
var ErrUnknownKey = errors.New("unknown api key")

// Directory resolves a presented API key to an Identity. Implementations are
// read-only at request time and swappable without changing the contract.
type Directory interface {
	Lookup(ctx context.Context, apiKey string) (*domain.Identity, error)
}

// MemoryDirectory is the in-memory reference implementation, seeded at
// startup and immutable afterwards.
type MemoryDirectory struct {
	identities map[string]domain.Identity
}

// NewMemoryDirectory builds a directory from configured entries, falling back
// to the demonstration seed when none are supplied.
func NewMemoryDirectory(entries []config.DirectoryEntry) *MemoryDirectory {
	if len(entries) == 0 {
		entries = demoSeed()
	}

	identities := make(map[string]domain.Identity, len(entries))
	for _, entry := range entries {
		identities[entry.Key] = domain.Identity{
			Name:       entry.Name,
			WebhookURL: entry.WebhookURL,
		}
	}
	return &MemoryDirectory{identities: identities}
}

// Lookup resolves the API key or fails with ErrUnknownKey.
func (d *MemoryDirectory) Lookup(_ context.Context, apiKey string) (*domain.Identity, error) {
	identity, ok := d.identities[apiKey]
	if !ok {
		return nil, ErrUnknownKey
	}
	return &identity, nil
}

// demoSeed mirrors the demonstration accounts: 32-character keys pointing at
// the local webhook receiver.
func demoSeed() []config.DirectoryEntry {
	return []config.DirectoryEntry{
		{Key: "4BwWbVFpCaikFZe8G8rr7I21nhCw8N0t", Name: "Aleksa", WebhookURL: "http://localhost:8080/webhook"},
		{Key: "jWxSZ9gtZ7waoIinQRKVf5hvAcEVIt9c", Name: "Sara", WebhookURL: "http://localhost:8080/webhook"},
		{Key: "jpjHQvZHdyXjKdpKbTEUZPesnZrjvrvl", Name: "Natasa", WebhookURL: "http://localhost:8080/webhook"},
	}
}
