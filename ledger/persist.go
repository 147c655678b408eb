package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	serversFile   = "servers.json"
	dmHistoryFile = "dm_history.json"
)

// Save writes the full ledger snapshot: all server records to servers.json
// and the direct-conversation message-id history to dm_history.json.
func (l *Ledger) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveSnapshot()
}

// saveLocked snapshots the ledger while already holding the mutex. Failures
// are logged, never raised: the in-memory state stays authoritative and the
// next successful write restores durability.
func (l *Ledger) saveLocked() {
	if err := l.saveSnapshot(); err != nil {
		logger.Error("snapshot failed", "dir", l.dir, "err", err)
	}
}

func (l *Ledger) saveSnapshot() error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := writeJSON(filepath.Join(l.dir, serversFile), l.servers); err != nil {
		return err
	}
	return writeJSON(filepath.Join(l.dir, dmHistoryFile), l.dmHistory)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Load replaces the ledger's contents with the snapshot on disk. Missing or
// corrupt files leave the corresponding part empty; the error is logged and
// the process keeps running.
func (l *Ledger) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	servers := make(map[string]*Server)
	if err := readJSON(filepath.Join(l.dir, serversFile), &servers); err != nil {
		logger.Error("could not load servers snapshot, starting empty", "err", err)
		servers = make(map[string]*Server)
	}
	for _, server := range servers {
		if server.Actions == nil {
			server.Actions = make(map[string][]ModAction)
		}
	}
	l.servers = servers

	dmHistory := make(map[string][]string)
	if err := readJSON(filepath.Join(l.dir, dmHistoryFile), &dmHistory); err != nil {
		logger.Error("could not load dm history snapshot, starting empty", "err", err)
		dmHistory = make(map[string][]string)
	}
	l.dmHistory = dmHistory
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
