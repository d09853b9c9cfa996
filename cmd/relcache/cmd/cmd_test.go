package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/aweris/relcache/internal/checksum"
)

func serveOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	files := map[string][]byte{}
	var builds []map[string]string
	for _, v := range []string{"0.8.1", "0.8.2"} {
		name := "solc-linux-amd64-v" + v + "+commit.661d1103"
		if v == "0.8.2" {
			name = "nightly/" + name
		}
		data := []byte("solc " + v)
		sum, err := checksum.Sum(checksum.SHA256, data)
		assert.NoError(t, err)
		builds = append(builds, map[string]string{"path": name, "version": v, "sha256": sum.String()})
		files["/linux-amd64/"+name] = data
	}
	listing, err := json.Marshal(map[string]any{"builds": builds, "latestRelease": "0.8.1"})
	assert.NoError(t, err)
	files["/linux-amd64/list.json"] = listing

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	srv := serveOrigin(t)
	cache := t.TempDir()
	common := []string{"--origin", srv.URL, "--platform", "linux-amd64", "--cache-dir", cache, "--checksum", "sha256", "--log-level", "error"}

	out, err := run(t, append([]string{"versions"}, common...)...)
	assert.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "solc-linux-amd64-v"))
	assert.Contains(t, out, "latest")

	out, err = run(t, append([]string{"install", "--version", "0.8.2"}, common...)...)
	assert.NoError(t, err)
	assert.Contains(t, out, "0.8.2\tdownloaded\tlinux-amd64/0.8.2/solc-linux-amd64-v0.8.2+commit.661d1103")

	out, err = run(t, append([]string{"install", "--version", "0.8.2"}, common...)...)
	assert.NoError(t, err)
	assert.Contains(t, out, "0.8.2\tcached")

	out, err = run(t, append([]string{"versions"}, common...)...)
	assert.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.Equal(t, strings.HasPrefix(line, "0.8.2"), strings.HasSuffix(line, "cached"), line)
	}

	out, err = run(t, append([]string{"list", "--filter", "/0\\.8\\.2/"}, common...)...)
	assert.NoError(t, err)
	assert.Equal(t, "linux-amd64/0.8.2/solc-linux-amd64-v0.8.2+commit.661d1103\n", out)

	out, err = run(t, append([]string{"cat", "0.8.2"}, common...)...)
	assert.NoError(t, err)
	assert.Equal(t, "solc 0.8.2", out)

	_, err = run(t, append([]string{"cat", "0.8.1"}, common...)...)
	assert.Error(t, err)
}
