package ports

import "context"

// SecretStore persists the backend credential between sessions.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// CredentialCache holds the session credential in memory once resolved.
type CredentialCache interface {
	Load() (string, bool)
	Store(value string) error
	Clear()
}

// CredentialPrompter asks the user for the credential.
type CredentialPrompter interface {
	PromptCredential(ctx context.Context) (string, error)
}
