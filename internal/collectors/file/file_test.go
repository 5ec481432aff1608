package file

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"linkguard/internal/collectors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUUID = "a906a218-c30c-473d-8b1c-ded049654917"

func TestFileCollector(t *testing.T) {
	c, err := collectors.Get("file")
	require.NoError(t, err)

	body := "vless://" + testUUID + "@example.com:443\nnoise\ntrojan://secret@example.com:443\n"
	plain := filepath.Join(t.TempDir(), "links.txt")
	require.NoError(t, os.WriteFile(plain, []byte(body), 0644))

	links, err := c.Collect(map[string]interface{}{"path": plain})
	require.NoError(t, err)
	assert.Len(t, links, 2)

	encoded := filepath.Join(t.TempDir(), "sub.txt")
	require.NoError(t, os.WriteFile(encoded, []byte(base64.StdEncoding.EncodeToString([]byte(body))), 0644))
	links, err = c.Collect(map[string]interface{}{"path": encoded})
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestFileCollectorErrors(t *testing.T) {
	c := &FileCollector{}
	_, err := c.Collect(map[string]interface{}{})
	assert.Error(t, err)

	_, err = c.Collect(map[string]interface{}{"path": filepath.Join(t.TempDir(), "missing.txt")})
	assert.Error(t, err)
}
