// Package promptlog persists prompt/response exchanges as JSON
// documents, one file per partition. The documents are both an audit
// log and an exact-match response cache: a prompt byte-identical to a
// logged one resolves to its recorded response without a remote call.
package promptlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Entry is one logged exchange.
type Entry struct {
	Model    string          `json:"model"`
	Prompt   string          `json:"prompt"`
	Response json.RawMessage `json:"response"`
	Message  string          `json:"message,omitempty"`
}

// Store reads and writes partition documents under a single directory.
// One mutex serializes every access: write volume is low, and a
// partition document must never be rewritten by two appends at once.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a store rooted at dir. No I/O happens until first use.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Lookup scans the partition in order and returns the response of the
// first entry whose prompt is byte-identical to prompt. No
// normalization is applied. A missing partition file is a plain miss.
func (s *Store) Lookup(prompt, partition string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readLocked(partition)
	if err != nil {
		return nil, false, err
	}

	for _, entry := range entries {
		if entry.Prompt == prompt {
			return entry.Response, true, nil
		}
	}
	return nil, false, nil
}

// Append adds an exchange to the end of the partition document and
// rewrites it. The response may be any JSON-encodable value; structured
// responses are stored as objects, free text as a string.
func (s *Store) Append(partition, model, prompt string, response any, message string) error {
	if partition == "" {
		return errors.New("partition cannot be empty")
	}

	raw, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readLocked(partition)
	if err != nil {
		return err
	}

	entries = append(entries, Entry{
		Model:    model,
		Prompt:   prompt,
		Response: raw,
		Message:  message,
	})

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode log partition %s: %w", partition, err)
	}
	if err := os.WriteFile(s.partitionPath(partition), data, 0o644); err != nil {
		return fmt.Errorf("write log partition %s: %w", partition, err)
	}
	return nil
}

func (s *Store) partitionPath(partition string) string {
	return filepath.Join(s.dir, partition+".json")
}

func (s *Store) readLocked(partition string) ([]Entry, error) {
	data, err := os.ReadFile(s.partitionPath(partition))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log partition %s: %w", partition, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse log partition %s: %w", partition, err)
	}
	return entries, nil
}
