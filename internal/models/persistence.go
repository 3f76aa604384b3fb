package models

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const transcriptFile = "session.yaml"

// Save writes the session transcript to <dir>/<session id>/session.yaml.
func (s *GameSession) Save(dir string) error {
	sessionDir := filepath.Join(dir, s.ID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(sessionDir, transcriptFile), data, 0644)
}

func LoadSession(dir, id string) (*GameSession, error) {
	data, err := os.ReadFile(filepath.Join(dir, id, transcriptFile))
	if err != nil {
		return nil, err
	}
	var session GameSession
	if err := yaml.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns the ids of saved transcripts, oldest first.
func ListSessions(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type saved struct {
		id      string
		modTime int64
	}
	var found []saved
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, entry.Name(), transcriptFile))
		if err != nil {
			continue
		}
		found = append(found, saved{id: entry.Name(), modTime: info.ModTime().UnixNano()})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].modTime < found[j].modTime })

	sessions := make([]string, 0, len(found))
	for _, f := range found {
		sessions = append(sessions, f.id)
	}
	return sessions, nil
}
