package config

import (
	"os"
	"path/filepath"
)

// CacheDBName is the SQLite file holding cached artifacts and run history
const CacheDBName = "cache.db"

// Root returns the directory relative paths resolve against
func (c *Config) Root() string {
	return c.root
}

// SetRoot changes the directory relative paths resolve against
func (c *Config) SetRoot(root string) {
	c.root = root
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.root == "" {
		return p
	}
	return filepath.Join(c.root, p)
}

// DataDir returns the data directory
func (c *Config) DataDir() string {
	return c.resolve(c.Paths.DataDir)
}

// CacheDir returns the cache directory
func (c *Config) CacheDir() string {
	return c.resolve(c.Paths.CacheDir)
}

// OutputDir returns the report output directory
func (c *Config) OutputDir() string {
	return c.resolve(c.Paths.OutputDir)
}

// RosterPath returns the signatory roster CSV path
func (c *Config) RosterPath() string {
	return c.resolve(c.Paths.Roster)
}

// HistoryPath returns the progress series CSV path
func (c *Config) HistoryPath() string {
	return c.resolve(c.Paths.History)
}

// CacheDBPath returns the SQLite cache database path
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.CacheDir(), CacheDBName)
}

// EnsureDirs creates the data, cache and output directories
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.DataDir(),
		c.CacheDir(),
		c.OutputDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}
