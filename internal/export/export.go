// Package export writes stored mappers as JSON documents to object storage,
// for message codecs that load mapper definitions without database access.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// ErrNoMapper is returned when Export is given a nil mapper.
var ErrNoMapper = errors.New("no mapper to export")

// Sink stores one object per key.
type Sink interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Document is the exported form of a mapper.
type Document struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	ExportedAt   time.Time         `json:"exported_at"`
	DataElements []ElementDocument `json:"data_elements"`
}

// ElementDocument is one data element of a Document.
type ElementDocument struct {
	ID           string `json:"id"`
	Number       int    `json:"number"`
	Type         string `json:"type"`
	LengthType   string `json:"length_type"`
	Length       *int   `json:"length,omitempty"`
	LengthPrefix *int   `json:"length_prefix,omitempty"`
}

// NewDocument converts m, listing elements by ascending number.
func NewDocument(m *core.Mapper, exportedAt time.Time) Document {
	doc := Document{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		ExportedAt:   exportedAt.UTC(),
		DataElements: make([]ElementDocument, 0, len(m.DataElements)),
	}
	numbers := make([]int, 0, len(m.DataElements))
	for n := range m.DataElements {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		de := m.DataElements[n]
		if de == nil {
			continue
		}
		doc.DataElements = append(doc.DataElements, ElementDocument{
			ID:           de.ID,
			Number:       n,
			Type:         string(de.Type),
			LengthType:   string(de.LengthType),
			Length:       de.Length,
			LengthPrefix: de.LengthPrefix,
		})
	}
	return doc
}

// Key returns the object key for m: <prefix>/<escaped name>/<id>.json.
func Key(prefix string, m *core.Mapper) string {
	if prefix == "" {
		prefix = "mappers"
	}
	return fmt.Sprintf("%s/%s/%s.json", prefix, url.PathEscape(m.Name), m.ID)
}

// Exporter serializes mappers into a Sink.
type Exporter struct {
	sink   Sink
	prefix string
	now    func() time.Time
	logger zerolog.Logger
}

// NewExporter creates an exporter writing under prefix (default "mappers").
func NewExporter(sink Sink, prefix string, logger zerolog.Logger) *Exporter {
	return &Exporter{
		sink:   sink,
		prefix: prefix,
		now:    time.Now,
		logger: logger.With().Str("component", "export").Logger(),
	}
}

// Export writes m and returns the object key.
func (e *Exporter) Export(ctx context.Context, m *core.Mapper) (string, error) {
	if m == nil {
		return "", ErrNoMapper
	}

	body, err := json.MarshalIndent(NewDocument(m, e.now()), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode mapper %s: %w", m.ID, err)
	}

	key := Key(e.prefix, m)
	if err := e.sink.Put(ctx, key, body, "application/json"); err != nil {
		return "", fmt.Errorf("failed to export mapper %s: %w", m.ID, err)
	}
	e.logger.Info().Str("mapper_id", m.ID).Str("key", key).Int("bytes", len(body)).Msg("mapper exported")
	return key, nil
}

// MemorySink keeps objects in memory.
type MemorySink struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{objects: make(map[string][]byte)}
}

func (s *MemorySink) Put(_ context.Context, key string, body []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = bytes.Clone(body)
	return nil
}

// Get returns the object at key.
func (s *MemorySink) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[key]
	return b, ok
}

// Keys returns all stored keys in sorted order.
func (s *MemorySink) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
