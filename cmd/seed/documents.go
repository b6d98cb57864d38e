package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/JaimeStill/document-manager/internal/documents"
)

//go:embed documents.json
var embeddedDocuments []byte

func init() {
	registerSeeder(&DocumentSeeder{})
}

// DocumentSeedData is the JSON structure of a document seed file.
type DocumentSeedData struct {
	Documents []SeedDocument `json:"documents"`
}

// SeedDocument describes one document and its children.
type SeedDocument struct {
	Owner       uuid.UUID           `json:"owner"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Files       []SeedFile          `json:"files"`
	Metadata    map[string]string   `json:"metadata"`
	Tags        []documents.UserTag `json:"tags"`
	Notes       []string            `json:"notes"`
}

// SeedFile is an inline file body.
type SeedFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// DocumentSeeder creates documents from an embedded or external seed file.
type DocumentSeeder struct {
	file  string
	owner uuid.UUID
}

func (s *DocumentSeeder) Name() string {
	return "documents"
}

func (s *DocumentSeeder) Description() string {
	return "Seeds sample documents with files, metadata, tags, and notes"
}

// SetFile configures an external seed file path, overriding the embedded default.
func (s *DocumentSeeder) SetFile(path string) {
	s.file = path
}

// SetOwner assigns every seeded document without an explicit owner to id.
func (s *DocumentSeeder) SetOwner(id uuid.UUID) {
	s.owner = id
}

func (s *DocumentSeeder) Seed(ctx context.Context, sys documents.System) error {
	data, err := s.loadSeedData()
	if err != nil {
		return err
	}

	for i, d := range data.Documents {
		owner := d.Owner
		if owner == uuid.Nil {
			owner = s.owner
		}
		if err := seedDocument(ctx, sys, owner, d); err != nil {
			return fmt.Errorf("document %d (%s): %w", i+1, d.Title, err)
		}
	}
	return nil
}

func seedDocument(ctx context.Context, sys documents.System, owner uuid.UUID, d SeedDocument) error {
	uploads := make([]documents.Upload, len(d.Files))
	for i, f := range d.Files {
		uploads[i] = documents.Upload{Filename: f.Name, Data: []byte(f.Content)}
	}

	detail, err := sys.CreateFromFiles(ctx, owner, uploads, documents.CreateCommand{
		Title:       d.Title,
		Description: d.Description,
	})
	if err != nil {
		return err
	}

	for k, v := range d.Metadata {
		if _, err := sys.AddMetadata(ctx, detail.ID, k, v); err != nil {
			return fmt.Errorf("metadata %s: %w", k, err)
		}
	}
	for _, t := range d.Tags {
		if _, err := sys.AddTagForUser(ctx, detail.ID, t.Name, owner, t.Color); err != nil {
			return fmt.Errorf("tag %s: %w", t.Name, err)
		}
	}
	for _, n := range d.Notes {
		if _, err := sys.AddNote(ctx, detail.ID, owner, n); err != nil {
			return fmt.Errorf("note: %w", err)
		}
	}

	fmt.Printf("  created %s %q (%d files)\n", detail.ID, detail.Title, len(detail.Files))
	return nil
}

func (s *DocumentSeeder) loadSeedData() (*DocumentSeedData, error) {
	raw := embeddedDocuments
	if s.file != "" {
		b, err := os.ReadFile(s.file)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		raw = b
	}

	var data DocumentSeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &data, nil
}
