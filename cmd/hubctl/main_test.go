package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hublink.dev/internal/obs"
)

var testKey = base64.StdEncoding.EncodeToString([]byte("hubctl-test-key"))

type result struct {
	code   int
	stdout string
	stderr string
	logs   string
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	l := obs.Logger()
	original := l.Writer()
	var logs bytes.Buffer
	l.SetOutput(&logs)
	defer l.SetOutput(original)

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String(), logs: logs.String()}
}

func writeConfig(t *testing.T) string {
	t.Helper()
	body := "default_profile: prod\n" +
		"profiles:\n" +
		"  prod:\n" +
		"    connection_string: \"HostName=prod.azure-devices.net;SharedAccessKeyName=owner;SharedAccessKey=" + testKey + "\"\n" +
		"  lab:\n" +
		"    connection_string: \"HostName=lab.azure-devices.net;SharedAccessKeyName=device;SharedAccessSignature=SharedAccessSignature sr=lab&sig=abc&se=1&skn=device\"\n" +
		"token:\n" +
		"  ttl: 1h\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func noConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestParseCommand(t *testing.T) {
	res := execute(t, "", "--config", noConfig(t), "parse",
		"HostName=myhub.azure-devices.net;SharedAccessKeyName=iothubowner;SharedAccessKey="+testKey)
	require.Equal(t, 0, res.code, res.stderr)

	assert.Contains(t, res.stdout, "Hub name:    myhub\n")
	assert.Contains(t, res.stdout, "User string: iothubowner@SAS.root.myhub\n")
	assert.Contains(t, res.stdout, "Auth kind:   shared_access_key\n")
	assert.Contains(t, res.stdout, "SharedAccessSignature=null")
	assert.NotContains(t, res.stdout, testKey)
	assert.NotContains(t, res.logs, testKey)
}

func TestParseCommandShowSecretsJSON(t *testing.T) {
	res := execute(t, "", "--config", noConfig(t), "parse", "-o", "json", "--show-secrets",
		"HostName=myhub.azure-devices.net;SharedAccessKeyName=iothubowner;SharedAccessKey="+testKey)
	require.Equal(t, 0, res.code, res.stderr)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))
	assert.Equal(t, "myhub", report["hub_name"])
	assert.Equal(t,
		"HostName=myhub.azure-devices.net;SharedAccessKeyName=iothubowner;SharedAccessKey="+testKey+";SharedAccessSignature=null",
		report["descriptor"])
}

func TestParseCommandFromProfileAndStdin(t *testing.T) {
	cfg := writeConfig(t)

	res := execute(t, "", "--config", cfg, "parse")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Host name:   prod.azure-devices.net\n")
	assert.Contains(t, res.logs, `"profile":"prod"`)

	res = execute(t, "", "--config", cfg, "--profile", "lab", "parse")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Auth kind:   shared_access_token\n")

	res = execute(t, "HostName=stdin.example.net;SharedAccessKeyName=k;SharedAccessSignature=s\n", "--config", cfg, "parse", "-")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Host name:   stdin.example.net\n")
}

func TestParseCommandErrors(t *testing.T) {
	res := execute(t, "", "--config", noConfig(t), "parse", "HostName=;SharedAccessKeyName=k;SharedAccessKey=secret-value")
	assert.Equal(t, 1, res.code)
	assert.True(t, strings.HasPrefix(res.stderr, "hubctl: connstr: invalid format"))
	assert.NotContains(t, res.stderr, "secret-value")

	res = execute(t, "", "--config", noConfig(t), "parse")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "no profile selected")

	res = execute(t, "", "--config", writeConfig(t), "--profile", "ghost", "parse")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unknown profile")

	res = execute(t, "", "--config", noConfig(t), "parse", "-o", "xml", "HostName=h")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "--output")
}

func TestTokenCommand(t *testing.T) {
	cfg := writeConfig(t)

	res := execute(t, "", "--config", cfg, "token")
	require.Equal(t, 0, res.code, res.stderr)
	token := strings.TrimSpace(res.stdout)
	assert.True(t, strings.HasPrefix(token, "SharedAccessSignature sr=prod.azure-devices.net&sig="))
	assert.True(t, strings.HasSuffix(token, "&skn=owner"))
	assert.Contains(t, res.logs, `"event":"token.issued"`)

	res = execute(t, "", "--config", cfg, "--profile", "lab", "token", "-o", "json")
	require.Equal(t, 0, res.code, res.stderr)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))
	assert.Equal(t, false, report["signed"])
	assert.Equal(t, "SharedAccessSignature sr=lab&sig=abc&se=1&skn=device", report["token"])
}

func TestTokenCommandFromFlags(t *testing.T) {
	res := execute(t, "", "--config", noConfig(t), "token", "-o", "json", "--ttl", "10m",
		"--host", "myhub.azure-devices.net", "--key-name", "iothubowner", "--key", testKey)
	require.Equal(t, 0, res.code, res.stderr)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))
	assert.Equal(t, true, report["signed"])
	assert.Equal(t, "iothubowner", report["key_name"])
	assert.NotEmpty(t, report["expires_at"])

	res = execute(t, "", "--config", noConfig(t), "token", "--host", "h", "--key-name", "k", "--key", testKey, "HostName=x")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "mutually exclusive")

	res = execute(t, "", "--config", noConfig(t), "token", "--host", "h", "--key", testKey)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "connstr: illegal input")
}

const twinJSON = `{
  "properties": {
    "desired": {
      "$metadata": {
        "$lastUpdated": "2017-09-21T02:07:44.238Z",
        "$lastUpdatedVersion": 5
      }
    }
  }
}`

func TestMetadataCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twin.json")
	require.NoError(t, os.WriteFile(path, []byte(twinJSON), 0o600))

	res := execute(t, "", "--config", noConfig(t), "metadata", path)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "properties.desired.$metadata\t{\"$lastUpdated\":\"2017-09-21T02:07:44.238Z\",\"$lastUpdatedVersion\":5}\n", res.stdout)

	res = execute(t, "", "--config", noConfig(t), "metadata", path, "--pretty")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "properties.desired.$metadata:\n{\n  \"$lastUpdated\"")

	yamlDoc := "$lastUpdatedVersion: 3\n$lastUpdatedBy: ops\n"
	res = execute(t, yamlDoc, "--config", noConfig(t), "metadata", "-", "--format", "yaml")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, ".\t{\"$lastUpdatedVersion\":3,\"$lastUpdatedBy\":\"ops\"}\n", res.stdout)

	res = execute(t, "{\"a\":1}", "--config", noConfig(t), "metadata", "-")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "No metadata found\n", res.stdout)
}

func TestMetadataCommandErrors(t *testing.T) {
	res := execute(t, `{"$lastUpdatedVersion": "abc"}`, "--config", noConfig(t), "metadata", "-")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "twin: invalid format")

	res = execute(t, "", "--config", noConfig(t), "metadata", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "read document")

	res = execute(t, "", "--config", noConfig(t), "metadata")
	assert.Equal(t, 1, res.code)
}

func TestVersionAndMetrics(t *testing.T) {
	res := execute(t, "", "--config", noConfig(t), "--metrics", "version")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "hubctl version dev (commit unknown)\n", res.stdout)
	assert.Contains(t, res.stderr, `hublink_build_info{commit="unknown",version="dev"} 1`)
}

func TestMetricsDumpedOnFailure(t *testing.T) {
	res := execute(t, "", "--config", noConfig(t), "--metrics", "parse", "HostName=bad host")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `hublink_descriptor_parse_total{entry="parse",result="format_error"}`)
}

func TestInvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o600))

	res := execute(t, "", "--config", path, "version")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "invalid configuration")
}
