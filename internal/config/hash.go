package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ChecksumFile is the manifest name, written next to the config file.
const ChecksumFile = ".checksums"

var (
	// ErrNoManifest means no .checksums file exists next to the config.
	ErrNoManifest = errors.New("checksums manifest not found")

	// ErrChecksumMismatch means the config changed since it was locked.
	ErrChecksumMismatch = errors.New("config checksum mismatch")
)

// ChecksumManifest is the on-disk .checksums format.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// Lock hashes the config file and writes .checksums beside it.
func Lock(configPath string) (*ChecksumManifest, error) {
	hash, err := ComputeBlake3Hash(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", configPath, err)
	}

	manifest := &ChecksumManifest{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hashes:      map[string]string{filepath.Base(configPath): hash},
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checksums: %w", err)
	}

	// Restrictive permissions; the manifest is the trust anchor.
	checksumPath := filepath.Join(filepath.Dir(configPath), ChecksumFile)
	if err := os.WriteFile(checksumPath, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write checksums: %w", err)
	}

	return manifest, nil
}

// LoadChecksums reads the .checksums file from a config directory.
func LoadChecksums(configDir string) (*ChecksumManifest, error) {
	data, err := os.ReadFile(filepath.Join(configDir, ChecksumFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoManifest
		}
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}

	var manifest ChecksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse checksums: %w", err)
	}

	if manifest.Version != 1 {
		return nil, fmt.Errorf("unsupported checksums version: %d", manifest.Version)
	}

	return &manifest, nil
}

// VerifyChecksums checks the config file against the manifest in its
// directory. It returns ErrNoManifest when the directory was never locked.
func VerifyChecksums(configPath string) error {
	manifest, err := LoadChecksums(filepath.Dir(configPath))
	if err != nil {
		return err
	}

	name := filepath.Base(configPath)
	expected, ok := manifest.Hashes[name]
	if !ok {
		return fmt.Errorf("%w: %s has no hash in %s (run 'cakeday config lock')", ErrChecksumMismatch, name, ChecksumFile)
	}

	actual, err := ComputeBlake3Hash(configPath)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("%w: %s (expected %s, got %s)\n"+
			"If you edited this file intentionally, run: cakeday config lock",
			ErrChecksumMismatch, name, expected, actual)
	}

	return nil
}
