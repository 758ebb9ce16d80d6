// Package hooks installs Qualiscan hook entries into the settings files of
// local developer agents, so agent edits get checked against the configured
// server.
package hooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// managedBy marks the entries this package owns inside an agent's settings
// file; install and uninstall never touch entries without it.
const managedBy = "qsctl"

const hookEvent = "after-edit"
const hookCommand = "qsctl issues list --output json"

// ErrNotInstalled is returned when uninstalling an agent that has no managed
// hook entry.
var ErrNotInstalled = errors.New("hook not installed")

// Agent is one supported developer agent.
type Agent struct {
	Name         string
	settingsPath []string
}

var agents = []Agent{
	{Name: "claude", settingsPath: []string{".claude", "settings.json"}},
	{Name: "cursor", settingsPath: []string{".cursor", "hooks.json"}},
	{Name: "windsurf", settingsPath: []string{".windsurf", "hooks.json"}},
}

// Agents lists the supported agent names.
func Agents() []string {
	names := make([]string, 0, len(agents))
	for _, a := range agents {
		names = append(names, a.Name)
	}
	return names
}

// Lookup resolves an agent by name.
func Lookup(name string) (Agent, error) {
	for _, a := range agents {
		if a.Name == name {
			return a, nil
		}
	}
	return Agent{}, fmt.Errorf("unsupported agent: %s (supported: %v)", name, Agents())
}

// Status describes whether an agent carries a managed hook entry.
type Status struct {
	Agent        string `json:"agent"`
	Installed    bool   `json:"installed"`
	Server       string `json:"server,omitempty"`
	SettingsPath string `json:"settingsPath"`
}

// Manager reads and writes agent settings files under one home directory.
type Manager struct {
	home string
	log  *zap.Logger
}

func NewManager(home string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{home: home, log: log}
}

func (m *Manager) settingsFile(agent Agent) string {
	return filepath.Join(append([]string{m.home}, agent.settingsPath...)...)
}

// Install adds (or replaces) the managed hook entry for agentName, pointing
// at server. The rest of the settings file is preserved and the previous
// version is kept next to it as a .bak file.
func (m *Manager) Install(agentName, server string) error {
	agent, err := Lookup(agentName)
	if err != nil {
		return err
	}
	if server == "" {
		return errors.New("server is required")
	}
	path := m.settingsFile(agent)
	settings, existed, err := loadSettings(path)
	if err != nil {
		return err
	}
	entries := withoutManaged(hookEntries(settings))
	entries = append(entries, map[string]any{
		"event":      hookEvent,
		"command":    hookCommand,
		"server":     server,
		"managed-by": managedBy,
	})
	settings["hooks"] = entries

	if existed {
		if err := backupFile(path); err != nil {
			return err
		}
	}
	m.log.Debug("installing agent hook", zap.String("agent", agentName), zap.String("path", path))
	return saveSettings(path, settings)
}

// Uninstall removes the managed hook entry for agentName, leaving everything
// else in the settings file alone.
func (m *Manager) Uninstall(agentName string) error {
	agent, err := Lookup(agentName)
	if err != nil {
		return err
	}
	path := m.settingsFile(agent)
	settings, existed, err := loadSettings(path)
	if err != nil {
		return err
	}
	if !existed {
		return ErrNotInstalled
	}
	entries := hookEntries(settings)
	kept := withoutManaged(entries)
	if len(kept) == len(entries) {
		return ErrNotInstalled
	}
	if len(kept) == 0 {
		delete(settings, "hooks")
	} else {
		settings["hooks"] = kept
	}
	m.log.Debug("removing agent hook", zap.String("agent", agentName), zap.String("path", path))
	return saveSettings(path, settings)
}

// Status reports the managed hook entry for one agent.
func (m *Manager) Status(agentName string) (Status, error) {
	agent, err := Lookup(agentName)
	if err != nil {
		return Status{}, err
	}
	path := m.settingsFile(agent)
	status := Status{Agent: agentName, SettingsPath: path}
	settings, existed, err := loadSettings(path)
	if err != nil || !existed {
		return status, err
	}
	for _, entry := range hookEntries(settings) {
		e, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if e["managed-by"] == managedBy {
			status.Installed = true
			status.Server, _ = e["server"].(string)
			break
		}
	}
	return status, nil
}

// StatusAll reports every supported agent.
func (m *Manager) StatusAll() ([]Status, error) {
	statuses := make([]Status, 0, len(agents))
	for _, a := range agents {
		s, err := m.Status(a.Name)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

func loadSettings(path string) (map[string]any, bool, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]any{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var settings map[string]any
	if err := json.Unmarshal(content, &settings); err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, true, nil
}

func saveSettings(path string, settings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return os.WriteFile(path, append(content, '\n'), 0o600)
}

func backupFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path+".bak", content, 0o600)
}

func hookEntries(settings map[string]any) []any {
	entries, _ := settings["hooks"].([]any)
	return entries
}

func withoutManaged(entries []any) []any {
	kept := make([]any, 0, len(entries))
	for _, entry := range entries {
		if e, ok := entry.(map[string]any); ok && e["managed-by"] == managedBy {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}
