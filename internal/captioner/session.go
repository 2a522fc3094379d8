package captioner

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/oukeidos/capt/internal/files"
)

// FailedItem records one file that could not be captioned, with a content
// hash so a resume can detect edits made in the meantime.
type FailedItem struct {
	Path string `json:"path"` // relative to the session log
	Hash string `json:"hash,omitempty"`
}

// SessionLog stores the state of a captioning session for later resume.
type SessionLog struct {
	LogVersion   int          `json:"log_version"`
	RootDir      string       `json:"root_dir"` // relative to the session log
	Provider     string       `json:"provider"` // "gemini" or "openai"
	Model        string       `json:"model"`
	PresetName   string       `json:"preset,omitempty"`
	Concurrency  int          `json:"concurrency"`
	Overwrite    bool         `json:"overwrite"`
	FailedItems  []FailedItem `json:"failed_items"`
	TotalItems   int          `json:"total_items"`
	Status       string       `json:"status"` // "Success", "Partial Success", "Failure"
	StatusReason string       `json:"status_reason,omitempty"`
}

const CurrentLogVersion = 1

// Validate checks if the session log is consistent and safe to resume.
func (log *SessionLog) Validate() error {
	if log.LogVersion == 0 {
		log.LogVersion = CurrentLogVersion
	}
	if log.LogVersion != CurrentLogVersion {
		return fmt.Errorf("unsupported log_version: %d", log.LogVersion)
	}
	if log.RootDir == "" {
		return fmt.Errorf("root_dir is empty")
	}
	// Security: Reject absolute paths (must be relative to log file)
	if filepath.IsAbs(log.RootDir) {
		return fmt.Errorf("root_dir must be relative, not absolute: %s", log.RootDir)
	}
	if log.Provider != "gemini" && log.Provider != "openai" {
		return fmt.Errorf("unsupported provider: %s", log.Provider)
	}
	if log.Model == "" {
		return fmt.Errorf("model name is empty")
	}
	if log.Concurrency <= 0 {
		return fmt.Errorf("invalid concurrency: %d", log.Concurrency)
	}
	if log.TotalItems <= 0 {
		return fmt.Errorf("invalid total_items: %d", log.TotalItems)
	}
	if len(log.FailedItems) == 0 {
		return fmt.Errorf("failed_items list is empty")
	}
	for _, item := range log.FailedItems {
		if item.Path == "" {
			return fmt.Errorf("failed item path is empty")
		}
		if filepath.IsAbs(item.Path) {
			return fmt.Errorf("failed item path must be relative, not absolute: %s", item.Path)
		}
		// Security: Reject path traversal attempts
		clean := filepath.Clean(item.Path)
		if strings.HasPrefix(clean, "..") {
			return fmt.Errorf("failed item path cannot traverse parent directories: %s", item.Path)
		}
		if item.Hash != "" && !strings.HasPrefix(item.Hash, "sha256:") {
			return fmt.Errorf("invalid item hash: %s", item.Hash)
		}
	}
	if log.Status == "" {
		return fmt.Errorf("session status is empty")
	}
	if log.StatusReason != "" && log.StatusReason != "canceled" {
		return fmt.Errorf("invalid status_reason: %s", log.StatusReason)
	}
	return nil
}

// SaveSessionLog saves the session state to a JSON file.
func SaveSessionLog(path string, log *SessionLog) error {
	if log.LogVersion == 0 {
		log.LogVersion = CurrentLogVersion
	}
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}
	return files.AtomicWriteExclusive(path, data, 0600)
}

// GenerateSessionPath creates a unique filename for the session log inside
// the captioned folder.
// Logic:
// 1. captions_session.json
// 2. captions_session_0.json ~ _9.json
// 3. captions_session_[UUIDv7].json (with collision check)
func GenerateSessionPath(rootDir string) string {
	// Stage 1: Primary
	primary := filepath.Join(rootDir, "captions_session.json")
	if _, err := os.Stat(primary); os.IsNotExist(err) {
		return primary
	}

	// Stage 2: Short Loop (0-9)
	for i := 0; i <= 9; i++ {
		candidate := filepath.Join(rootDir, fmt.Sprintf("captions_session_%d.json", i))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}

	// Stage 3: Fallback (UUID v7)
	for i := 0; i < 100; i++ {
		u, err := uuid.NewV7()
		var suffix string
		if err != nil {
			suffix = uuid.NewString()[:8]
		} else {
			suffix = u.String()
		}
		candidate := filepath.Join(rootDir, fmt.Sprintf("captions_session_%s.json", suffix))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}

	// Final fallback
	return filepath.Join(rootDir, fmt.Sprintf("captions_session_final_%d.json", os.Getpid()))
}

// LoadSessionLog loads the session state from a JSON file.
func LoadSessionLog(path string) (*SessionLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var log SessionLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, err
	}
	if log.LogVersion == 0 {
		log.LogVersion = CurrentLogVersion
	}
	return &log, nil
}

// LoadSessionLogWithHash loads the session log and returns a content hash.
func LoadSessionLogWithHash(path string) (*SessionLog, [32]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, [32]byte{}, err
	}
	var log SessionLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, [32]byte{}, err
	}
	if log.LogVersion == 0 {
		log.LogVersion = CurrentLogVersion
	}
	return &log, sha256.Sum256(data), nil
}

// HashFile returns a SHA-256 hash of the given file contents.
func HashFile(path string) ([32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [32]byte{}, err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// HashFileHex returns a sha256-prefixed hex string of the file contents.
func HashFileHex(path string) (string, error) {
	sum, err := HashFile(path)
	if err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// CalculateStatus determines the session status based on failed and total items.
func CalculateStatus(failedCount, totalCount int) string {
	if failedCount == 0 {
		return "Success"
	}
	if failedCount < totalCount {
		return "Partial Success"
	}
	return "Failure"
}

// ResolvePath resolves a log-relative path based on the log file location.
func ResolvePath(logPath, relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}
	logDir := filepath.Dir(logPath)
	return filepath.Join(logDir, relPath)
}

// ToRelativePath converts an absolute path to relative based on the log
// file location. Paths escaping the log directory are rejected.
func ToRelativePath(logPath, targetPath string) (string, error) {
	logDir := filepath.Dir(logPath)
	absLogDir, err := filepath.Abs(logDir)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absLogDir, absTarget)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path is not within the session log directory")
	}
	return rel, nil
}
