// Package domain defines the core domain models for the chat backend.
package domain

import (
	"fmt"
	"strings"
)

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ModelType selects the model backend for a chat turn.
type ModelType string

const (
	ModelGPT    ModelType = "gpt"
	ModelClaude ModelType = "claude"
)

// DefaultModelType is used when the caller does not name a model.
const DefaultModelType = ModelGPT

// ModelTypes lists every supported model type.
var ModelTypes = []ModelType{ModelGPT, ModelClaude}

// ParseModelType parses a caller-supplied model name, case-insensitively.
// An empty name yields DefaultModelType.
func ParseModelType(s string) (ModelType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultModelType, nil
	case string(ModelGPT):
		return ModelGPT, nil
	case string(ModelClaude):
		return ModelClaude, nil
	}
	return "", fmt.Errorf("unsupported model type %q", s)
}

// RouteModelType maps any tag onto a model type. Only "claude" (any case)
// selects Claude; everything else, including unknown values, falls back to GPT.
func RouteModelType(s string) ModelType {
	if strings.EqualFold(s, string(ModelClaude)) {
		return ModelClaude
	}
	return ModelGPT
}
