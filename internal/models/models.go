package models

import (
	"errors"
	"fmt"
)

// PaperMeta is the metadata record persisted alongside a paper's index.
type PaperMeta struct {
	PaperID   string `json:"paper_id"`
	NumChunks int    `json:"num_chunks"`
	Title     string `json:"title"`
}

// Paper is the ownership record kept in the relational database.
type Paper struct {
	ID     string
	Title  string
	UserID string
}

// User is an account that owns papers.
type User struct {
	ID           string
	Username     string
	PasswordHash string
}

// Model identifies one of the supported completion models. The set is
// closed: anything outside it is rejected before any index or network work.
type Model string

const (
	ModelLlama32 Model = "llama3.2:1b"
	ModelPhi3    Model = "phi3:mini"
	ModelGemma   Model = "gemma:2b"
)

var ErrInvalidModel = errors.New("unsupported model")

// SupportedModels lists every model the completion gateway accepts.
func SupportedModels() []Model {
	return []Model{ModelLlama32, ModelPhi3, ModelGemma}
}

// ParseModel validates a raw model name against the supported set.
func ParseModel(s string) (Model, error) {
	for _, m := range SupportedModels() {
		if Model(s) == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (choose from %v)", ErrInvalidModel, s, SupportedModels())
}
