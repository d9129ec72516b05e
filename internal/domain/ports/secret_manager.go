package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., terminal auth key)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter retrieves secrets from a secret management service.
// Supports multiple backends: AWS Secrets Manager, HashiCorp Vault, local
// filesystem (development only). Implementations handle authentication and
// cache secrets appropriately.
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name.
	// Path format depends on implementation:
	//   - AWS: "terminal-service/terminals/{terminal_id}/auth-key"
	//   - Vault: "secret/data/terminal-service/terminals/{terminal_id}"
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// PutSecret creates or updates a secret (admin/provisioning operations).
	// Returns the new version identifier.
	PutSecret(ctx context.Context, path string, value string, metadata map[string]string) (version string, err error)
}
