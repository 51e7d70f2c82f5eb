// Package repository stores deployment artifacts on disk: one directory
// per contract address holding a manifest of what was deployed there.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const manifestFile = "manifest.json"

// Deployment kinds
const (
	KindNative = "native"
	KindWasm   = "wasm"
)

// ErrAlreadyDeployed is returned when an address already has an artifact.
var ErrAlreadyDeployed = errors.New("deployment already recorded")

// Deployment is the manifest of one deployed contract instance.
type Deployment struct {
	Address    string    `json:"address"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	CodeHash   string    `json:"code_hash"`
	DeployTime time.Time `json:"deploy_time"`
}

// Manager manages the deployment artifact directory.
type Manager struct {
	rootDir string
}

// NewManager creates an artifact manager rooted at rootDir.
func NewManager(rootDir string) (*Manager, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		slog.Error("failed to create artifact directory", "dir", rootDir, "error", err)
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Manager{rootDir: rootDir}, nil
}

// Register records a new deployment. The manifest's deploy time is set
// here if the caller left it zero.
func (m *Manager) Register(d *Deployment) error {
	if d.Address == "" {
		return fmt.Errorf("deployment address is required")
	}

	dir := m.deploymentDir(d.Address)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyDeployed, d.Address)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check deployment directory: %w", err)
	}

	if d.DeployTime.IsZero() {
		d.DeployTime = time.Now().UTC()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create deployment directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0644); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Get loads the manifest recorded for an address.
func (m *Manager) Get(address string) (*Deployment, error) {
	data, err := os.ReadFile(filepath.Join(m.deploymentDir(address), manifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var d Deployment
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &d, nil
}

// Has reports whether an address has a recorded deployment.
func (m *Manager) Has(address string) bool {
	_, err := os.Stat(filepath.Join(m.deploymentDir(address), manifestFile))
	return err == nil
}

// List returns all recorded deployments, oldest first.
func (m *Manager) List() ([]*Deployment, error) {
	entries, err := os.ReadDir(m.rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact directory: %w", err)
	}

	var out []*Deployment
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		d, err := m.Get(entry.Name())
		if err != nil {
			slog.Error("skipping unreadable manifest", "address", entry.Name(), "error", err)
			continue
		}
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].DeployTime.Before(out[j].DeployTime)
	})
	return out, nil
}

func (m *Manager) deploymentDir(address string) string {
	return filepath.Join(m.rootDir, address)
}
