package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store persists profiles as one YAML file per profile under a directory.
// Files are human-readable and hand-editable; Load validates so a corrupted
// file is rejected early instead of propagating into the engine.
type Store struct {
	dir string
}

// DefaultDir returns the default profiles directory.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "displaysnap", "profiles"), nil
}

// NewStore creates a store rooted at dir. An empty dir selects the default
// location.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return &Store{dir: dir}, nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("profile name is required")
	}
	if strings.Contains(name, string(os.PathSeparator)) || name != filepath.Base(name) {
		return fmt.Errorf("invalid profile name %q", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("invalid profile name %q", name)
	}
	return nil
}

func (s *Store) path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+".yaml"), nil
}

// Save writes a profile to disk after validating it.
func (s *Store) Save(p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	if err := validateName(p.Name); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create profiles directory: %w", err)
	}
	path, err := s.path(p.Name)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile %q: %w", p.Name, err)
	}
	return nil
}

// Load reads and validates one profile.
func (s *Store) Load(name string) (*Profile, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %q: %w", name, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %q: %w", name, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the names of all saved profiles, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".yaml"))
	}
	sort.Strings(out)
	return out, nil
}

// LoadAll reads every saved profile, skipping none: a corrupted file fails
// the whole load so the caller sees the problem.
func (s *Store) LoadAll() ([]*Profile, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}
	out := make([]*Profile, 0, len(names))
	for _, name := range names {
		p, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Delete removes a profile.
func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete profile %q: %w", name, err)
	}
	return nil
}

// Rename moves a profile to a new name. The target must not already exist.
func (s *Store) Rename(oldName, newName string) error {
	p, err := s.Load(oldName)
	if err != nil {
		return err
	}
	newPath, err := s.path(newName)
	if err != nil {
		return err
	}
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("profile %q already exists", newName)
	}

	p.Name = newName
	if err := s.Save(p); err != nil {
		return err
	}
	return s.Delete(oldName)
}

// exportDoc is the on-disk shape of an export file: all profiles in one
// document, keyed by name.
type exportDoc struct {
	Profiles map[string]*Profile `yaml:"profiles"`
}

// Export writes all profiles into a single YAML document at path.
func (s *Store) Export(path string) error {
	profiles, err := s.LoadAll()
	if err != nil {
		return err
	}
	doc := exportDoc{Profiles: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		doc.Profiles[p.Name] = p
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export %q: %w", path, err)
	}
	return nil
}

// Import merges profiles from an export file into the store, overwriting
// same-named profiles. Returns the imported names.
func (s *Store) Import(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import %q: %w", path, err)
	}
	var doc exportDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse import %q: %w", path, err)
	}

	names := make([]string, 0, len(doc.Profiles))
	for name, p := range doc.Profiles {
		if p.Name == "" {
			p.Name = name
		}
		if err := s.Save(p); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
