// Package security seals credential payloads and API keys, and strips secret material from
// workflows before they leave the service.
package security

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/persistence"
	"github.com/google/uuid"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidCiphertext  = errors.New("invalid ciphertext")
	ErrEmptyEncryptionKey = errors.New("encryption key is required")
)

// apiKeyContext separates the API key sealing key from the data sealing key.
const apiKeyContext = "apikey:"

// Service holds the sealing keys and the credential store.
type Service struct {
	key         [32]byte
	apiKey      [32]byte
	credentials persistence.CredentialRepository
	now         func() time.Time
}

// NewService derives the data and API key sealing keys from encryptionKey.
func NewService(encryptionKey string, credentials persistence.CredentialRepository) (*Service, error) {
	if encryptionKey == "" {
		return nil, ErrEmptyEncryptionKey
	}

	return &Service{
		key:         sha256.Sum256([]byte(encryptionKey)),
		apiKey:      sha256.Sum256([]byte(apiKeyContext + encryptionKey)),
		credentials: credentials,
		now:         time.Now,
	}, nil
}

// EncryptData seals the JSON encoding of value. The output is URL-safe base64 so it can
// travel in headers.
func (s *Service) EncryptData(value any) (string, error) {
	return seal(&s.key, value)
}

// DecryptData opens data produced by EncryptData into target.
func (s *Service) DecryptData(encrypted string, target any) error {
	return open(&s.key, encrypted, target)
}

func seal(key *[32]byte, value any) (string, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, key)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func open(key *[32]byte, encrypted string, target any) error {
	sealed, err := base64.RawURLEncoding.DecodeString(encrypted)
	if err != nil || len(sealed) < nonceSize+secretbox.Overhead {
		return ErrInvalidCiphertext
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return ErrInvalidCiphertext
	}

	if err := json.Unmarshal(plaintext, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return nil
}

// StoreCredential seals the credential data and stores it. A credential without an ID gets
// one. The caller's value is not modified.
func (s *Service) StoreCredential(ctx context.Context, credential *models.Credential) (string, error) {
	encrypted, err := s.EncryptData(credential.Data)
	if err != nil {
		return "", err
	}

	secure := *credential
	if secure.ID == "" {
		secure.ID = uuid.NewString()
	}

	secure.Data = map[string]any{models.CredentialEncryptedKey: encrypted}

	if err := s.credentials.Save(ctx, &secure); err != nil {
		return "", fmt.Errorf("failed to store credential: %w", err)
	}

	return secure.ID, nil
}

// GetCredential loads a credential and returns it with its data decrypted.
func (s *Service) GetCredential(ctx context.Context, id string) (*models.Credential, error) {
	credential, err := s.credentials.GetByID(ctx, id)
	if err != nil {
		if persistence.IsCredentialNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrCredentialNotFound, id)
		}

		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	encrypted, _ := credential.Data[models.CredentialEncryptedKey].(string)

	var data map[string]any
	if err := s.DecryptData(encrypted, &data); err != nil {
		return nil, fmt.Errorf("failed to decrypt credential %s: %w", id, err)
	}

	credential.Data = data

	return credential, nil
}

// SanitizeWorkflow returns a deep copy of workflow in which every node credential slot is
// reduced to its {id, name} reference. Slots missing either field are dropped.
func SanitizeWorkflow(workflow *models.Workflow) (*models.Workflow, error) {
	body, err := json.Marshal(workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to copy workflow: %w", err)
	}

	var sanitized models.Workflow
	if err := json.Unmarshal(body, &sanitized); err != nil {
		return nil, fmt.Errorf("failed to copy workflow: %w", err)
	}

	for _, node := range sanitized.Nodes {
		if node == nil || node.Credentials == nil {
			continue
		}

		credentials := make(map[string]models.CredentialRef, len(node.Credentials))

		for slot, ref := range node.Credentials {
			if ref.ID != "" && ref.Name != "" {
				credentials[slot] = models.CredentialRef{ID: ref.ID, Name: ref.Name}
			}
		}

		node.Credentials = credentials
	}

	return &sanitized, nil
}

type apiKeyPayload struct {
	WorkflowID string `json:"workflowId"`
	Exp        int64  `json:"exp"`
}

// APIKeyValidation is the outcome of ValidateAPIKey.
type APIKeyValidation struct {
	Valid      bool   `json:"valid"`
	WorkflowID string `json:"workflowId,omitempty"`
}

// GenerateAPIKey issues a sealed key that authorizes executions of one workflow until ttl
// elapses.
func (s *Service) GenerateAPIKey(workflowID string, ttl time.Duration) (string, error) {
	return seal(&s.apiKey, apiKeyPayload{
		WorkflowID: workflowID,
		Exp:        s.now().Add(ttl).Unix(),
	})
}

// ValidateAPIKey reports whether key was issued by this service and has not expired.
func (s *Service) ValidateAPIKey(key string) APIKeyValidation {
	var payload apiKeyPayload
	if err := open(&s.apiKey, key, &payload); err != nil {
		return APIKeyValidation{}
	}

	if payload.Exp < s.now().Unix() {
		return APIKeyValidation{}
	}

	return APIKeyValidation{Valid: true, WorkflowID: payload.WorkflowID}
}
