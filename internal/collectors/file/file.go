package file

import (
	"fmt"
	"io"
	"os"

	"linkguard/internal/collectors"
	"linkguard/internal/xray"
)

// FileCollector reads links from params["path"]; "-" means stdin.
type FileCollector struct{}

func (c *FileCollector) Collect(config map[string]interface{}) ([]string, error) {
	path, err := collectors.StringParam(config, "path")
	if err != nil {
		return nil, err
	}

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return xray.ExtractLinks(xray.DecodeSubscription(string(data))), nil
}

func init() {
	collectors.Register("file", func() collectors.Collector {
		return &FileCollector{}
	})
}
