package initcmd

import (
	"fmt"
	"os"
)

// BackupSettings copies an existing settings file to <path>.bak before it is
// overwritten. It returns "" when there was nothing to back up.
func BackupSettings(path string) (string, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read existing settings: %w", err)
	}

	backupPath := path + ".bak"
	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}

	return backupPath, nil
}

// SettingsExist reports whether a settings file exists at path.
func SettingsExist(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
