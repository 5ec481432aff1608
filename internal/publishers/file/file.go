package file

import (
	"fmt"
	"os"
	"path/filepath"

	"linkguard/internal/model"
	"linkguard/internal/publishers"
)

// Publisher writes the subscription to params["path"], replacing it atomically.
type Publisher struct{}

func (p *Publisher) Publish(links []model.Link, config map[string]interface{}) error {
	path, _ := config["path"].(string)
	if path == "" {
		return fmt.Errorf("file publisher requires path")
	}

	payload, err := publishers.GenerateSubscriptionPayload(links, config)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".linkguard-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.WriteString(payload + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func init() {
	publishers.Register("file", func() publishers.Publisher { return &Publisher{} })
}
