package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version   int               `toml:"version"`
	UpdatedAt string            `toml:"updated_at,omitempty"`
	Entries   map[string]string `toml:"entries"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	if s.Entries == nil {
		s.Entries = map[string]string{}
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported mirror schema version %d (current %d)", s.Version, currentSchemaVersion)
	}
	return nil
}

// size is the quota footprint of the entries.
func (s fileSchema) size() int64 {
	var total int64
	for key, value := range s.Entries {
		total += int64(len(key) + len(value))
	}
	return total
}
