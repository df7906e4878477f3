package config

import (
	"errors"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Settings is a TOML file backed key/value store for user facing options.
// Accessors report whether the key was present with the requested type, so
// callers can keep their defaults when a key is missing.
type Settings struct {
	mutex sync.Mutex
	path  string
	data  map[string]interface{}
}

// Open reads the settings file at path. A missing file is not an error and
// yields an empty store that Save will create.
func Open(path string) (*Settings, error) {
	s := &Settings{
		path: path,
		data: make(map[string]interface{}),
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(raw, &s.data); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Path() string {
	return s.path
}

func (s *Settings) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	raw, err := toml.Marshal(s.data)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0600)
}

func (s *Settings) Set(key string, value interface{}) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[key] = value
}

func (s *Settings) Delete(key string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.data, key)
}

func (s *Settings) Bool(key string) (bool, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if b, ok := s.data[key].(bool); ok {
		return b, true
	}
	return false, false
}

func (s *Settings) String(key string) (string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if str, ok := s.data[key].(string); ok {
		return str, true
	}
	return "", false
}

func (s *Settings) Int(key string) (int64, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	switch n := s.data[key].(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

func (s *Settings) Float(key string) (float64, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	switch n := s.data[key].(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
