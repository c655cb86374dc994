// Package roster loads the sender and recipient db files. Both are flat JSON
// files maintained by hand, so errors carry the path for quick fixing.
package roster

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kukua/saro-sms/internal/domain"
)

// LoadSenders reads the sender identity pool: a JSON array of phone strings.
func LoadSenders(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read senders db %s: %w", path, err)
	}
	var senders []string
	if err := json.Unmarshal(data, &senders); err != nil {
		return nil, fmt.Errorf("parse senders db %s: %w", path, err)
	}
	return senders, nil
}

// LoadRecipients reads one recipient db file: a JSON array of raw records.
func LoadRecipients(path string) ([]domain.RawRecipient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipients db %s: %w", path, err)
	}
	var recipients []domain.RawRecipient
	if err := json.Unmarshal(data, &recipients); err != nil {
		return nil, fmt.Errorf("parse recipients db %s: %w", path, err)
	}
	return recipients, nil
}
