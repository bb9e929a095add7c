// Package config provides access to the pipeline configuration file.
// Values are read fresh from disk on every access so edits made between
// pipeline steps take effect without a restart.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrKeyNotFound indicates the requested key is absent from the
	// configuration file.
	ErrKeyNotFound = errors.New("key not found")

	// ErrWrongType indicates a key exists but holds a value of an
	// unexpected type.
	ErrWrongType = errors.New("unexpected value type")
)

// Store reads and writes the YAML configuration file. All accesses
// serialize on an internal mutex; reads re-parse the file each time.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open loads environment files and verifies that the configuration file
// at path parses as YAML.
func Open(path string) (*Store, error) {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	store := &Store{path: path}
	if _, err := store.load(); err != nil {
		return nil, err
	}

	return store, nil
}

// Path returns the location of the configuration file.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value at the dotted key, re-reading the file.
func (s *Store) Get(key string) (any, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.load()
	if err != nil {
		return nil, err
	}

	current := any(root)
	for _, segment := range strings.Split(key, ".") {
		mapping, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		current, ok = mapping[segment]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
	}

	return current, nil
}

// GetString returns the string value at the dotted key.
func (s *Store) GetString(key string) (string, error) {
	value, err := s.Get(key)
	if err != nil {
		return "", err
	}

	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s holds %T, want string", ErrWrongType, key, value)
	}
	return str, nil
}

// GetInt returns the integer value at the dotted key.
func (s *Store) GetInt(key string) (int, error) {
	value, err := s.Get(key)
	if err != nil {
		return 0, err
	}

	switch n := value.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s holds %T, want int", ErrWrongType, key, value)
	}
}

// GetFloat64 returns the numeric value at the dotted key.
func (s *Store) GetFloat64(key string) (float64, error) {
	value, err := s.Get(key)
	if err != nil {
		return 0, err
	}

	switch n := value.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %s holds %T, want float", ErrWrongType, key, value)
	}
}

// GetBool returns the boolean value at the dotted key.
func (s *Store) GetBool(key string) (bool, error) {
	value, err := s.Get(key)
	if err != nil {
		return false, err
	}

	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s holds %T, want bool", ErrWrongType, key, value)
	}
	return b, nil
}

// GetStringSlice returns the list of strings at the dotted key.
func (s *Store) GetStringSlice(key string) ([]string, error) {
	value, err := s.Get(key)
	if err != nil {
		return nil, err
	}

	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %T, want list", ErrWrongType, key, value)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s contains %T, want string", ErrWrongType, key, item)
		}
		out = append(out, str)
	}
	return out, nil
}

// Set replaces the value at the dotted key and rewrites the file.
// The key must already exist: the configuration file declares the
// schema, code does not invent keys. Comments and ordering in the file
// are preserved.
func (s *Store) Set(key string, value any) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if len(doc.Content) == 0 {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	target := findValueNode(doc.Content[0], strings.Split(key, "."))
	if target == nil {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	head, line, foot := target.HeadComment, target.LineComment, target.FootComment
	if err := target.Encode(value); err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	target.HeadComment, target.LineComment, target.FootComment = head, line, foot

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// load reads and parses the configuration file.
func (s *Store) load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return root, nil
}

// findValueNode walks mapping nodes along the dotted path and returns
// the value node at the end, or nil if any segment is missing.
func findValueNode(node *yaml.Node, segments []string) *yaml.Node {
	current := node
	for _, segment := range segments {
		if current.Kind != yaml.MappingNode {
			return nil
		}

		var next *yaml.Node
		for i := 0; i+1 < len(current.Content); i += 2 {
			if current.Content[i].Value == segment {
				next = current.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}
