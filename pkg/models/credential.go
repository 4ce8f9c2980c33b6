package models

// CredentialEncryptedKey is the data key under which a stored credential keeps its sealed payload.
const CredentialEncryptedKey = "encrypted"

// NodeAccess grants a node type access to a credential.
type NodeAccess struct {
	NodeType string `json:"nodeType" validate:"required"`
}

// Credential is a named secret used by node credential slots.
type Credential struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required"`
	Type        string         `json:"type"        validate:"required"`
	Data        map[string]any `json:"data"`
	NodesAccess []NodeAccess   `json:"nodesAccess" validate:"dive"`
}
