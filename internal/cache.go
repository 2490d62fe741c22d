package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const cacheVersion = "1.0"

// CacheManager keeps an offline copy of the session list and transcripts
type CacheManager struct {
	cacheDir string
}

// CacheMetadata stores metadata about the cache
type CacheMetadata struct {
	BaseURL      string    `yaml:"base_url"`
	UserID       string    `yaml:"user_id"`
	CacheVersion string    `yaml:"cache_version"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// SessionIndex represents the YAML index of a user's sessions
type SessionIndex struct {
	Sessions []Session    `yaml:"sessions"`
	Metadata CacheMetadata `yaml:"metadata"`
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cacheDir string) *CacheManager {
	return &CacheManager{
		cacheDir: cacheDir,
	}
}

// EnsureCacheDir ensures the cache directory exists
func (cm *CacheManager) EnsureCacheDir() error {
	return os.MkdirAll(cm.cacheDir, 0755)
}

// GetIndexPath returns the path to the session index YAML file
func (cm *CacheManager) GetIndexPath() string {
	return filepath.Join(cm.cacheDir, "sessions.yaml")
}

// GetTranscriptPath returns the path to a session's transcript file
func (cm *CacheManager) GetTranscriptPath(sessionID string) string {
	return filepath.Join(cm.cacheDir, fmt.Sprintf("session_%s.json", sessionID))
}

// checkSessionID rejects ids that would resolve outside the cache directory
func checkSessionID(sessionID string) error {
	if sessionID == "" || sessionID == "." || strings.Contains(sessionID, "..") ||
		strings.ContainsAny(sessionID, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	return nil
}

// LoadIndex loads the session index
func (cm *CacheManager) LoadIndex() (*SessionIndex, error) {
	indexPath := cm.GetIndexPath()
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, &CacheError{Path: indexPath, Op: "read", Err: err}
	}

	var index SessionIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}

	return &index, nil
}

// LoadSessions returns the cached list if it belongs to the given backend and user
func (cm *CacheManager) LoadSessions(baseURL, userID string) ([]Session, error) {
	index, err := cm.LoadIndex()
	if err != nil {
		return nil, err
	}
	if index.Metadata.BaseURL != baseURL || index.Metadata.UserID != userID {
		return nil, fmt.Errorf("cached index belongs to %s@%s", index.Metadata.UserID, index.Metadata.BaseURL)
	}
	return index.Sessions, nil
}

// SaveSessions replaces the session index
func (cm *CacheManager) SaveSessions(baseURL, userID string, sessions []Session) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return &CacheError{Path: cm.cacheDir, Op: "open", Err: err}
	}

	index := SessionIndex{
		Sessions: sessions,
		Metadata: CacheMetadata{
			BaseURL:      baseURL,
			UserID:       userID,
			CacheVersion: cacheVersion,
			UpdatedAt:    time.Now(),
		},
	}
	if index.Sessions == nil {
		index.Sessions = []Session{}
	}

	data, err := yaml.Marshal(&index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	indexPath := cm.GetIndexPath()
	if err := os.WriteFile(indexPath, data, 0644); err != nil {
		return &CacheError{Path: indexPath, Op: "write", Err: err}
	}
	return nil
}

// SaveTranscript writes a session's transcript
func (cm *CacheManager) SaveTranscript(t *Transcript) error {
	if t == nil || t.SessionID == "" {
		return fmt.Errorf("transcript has no session id")
	}
	if err := checkSessionID(t.SessionID); err != nil {
		return err
	}
	if err := cm.EnsureCacheDir(); err != nil {
		return &CacheError{Path: cm.cacheDir, Op: "open", Err: err}
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	path := cm.GetTranscriptPath(t.SessionID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &CacheError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// LoadTranscript reads a session's transcript
func (cm *CacheManager) LoadTranscript(sessionID string) (*Transcript, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	path := cm.GetTranscriptPath(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CacheError{Path: path, Op: "read", Err: err}
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return &t, nil
}

// RemoveTranscript deletes a cached transcript if present
func (cm *CacheManager) RemoveTranscript(sessionID string) error {
	if err := checkSessionID(sessionID); err != nil {
		return err
	}
	if err := os.Remove(cm.GetTranscriptPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearCache removes the index and every transcript it lists
func (cm *CacheManager) ClearCache() error {
	indexPath := cm.GetIndexPath()

	index, err := cm.LoadIndex()
	if err == nil {
		for _, s := range index.Sessions {
			_ = cm.RemoveTranscript(s.ID)
		}
	}

	if err := os.Remove(indexPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
