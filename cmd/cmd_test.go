package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lumos-Labs-HQ/colonize"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/yaml.v3"
)

const fixtures = `
- collection: organisations
  entities:
    - key: primary
      data: {name: Apple}
- collection: users
  entities:
    - key: primary
      data: {name: Mike, ownedBy: !ref organisations.primary}
`

func setup(t *testing.T) (configPath, seedingPath string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	seedingPath = filepath.Join(dir, "seeding")
	require.NoError(t, os.MkdirAll(seedingPath, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(seedingPath, "all.yaml"), []byte(fixtures), 0644))

	configPath = filepath.Join(dir, "colonize.config.json")
	content := `{
  "store_url": "memory://cli-test",
  "connection_whitelist": ["memory://cli-test"],
  "seeding_path": "` + filepath.ToSlash(seedingPath) + `"
}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath, seedingPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	configPath, _ := setup(t)

	out, err := run(t, "plan", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1. organisations (1 entities)")
	assert.Contains(t, out, "2. users (1 entities)")
}

func TestSeedCommandWritesSnapshot(t *testing.T) {
	configPath, _ := setup(t)
	snapshotPath := filepath.Join(t.TempDir(), "snapshot.json")
	t.Cleanup(func() { seedOut = "" })

	out, err := run(t, "seed", "--config", configPath, "--out", snapshotPath)
	require.NoError(t, err)
	assert.Contains(t, out, "organisations")

	data, err := os.ReadFile(snapshotPath)
	require.NoError(t, err)

	var snap snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, []string{"organisations", "users"}, snap.Order)

	org := snap.Refs["organisations"].(map[string]interface{})["primary"].(map[string]interface{})
	user := snap.Stash["users"].(map[string]interface{})["primary"].(map[string]interface{})
	assert.Equal(t, org["_id"], user["ownedBy"])
}

func TestDropCommandRequiresConfirmation(t *testing.T) {
	configPath, _ := setup(t)
	stdin = strings.NewReader("no\n")
	t.Cleanup(func() { stdin = os.Stdin })

	out, err := run(t, "drop", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Drop cancelled")
}

func TestSeedCommandRefusesUnsafeURL(t *testing.T) {
	configPath, _ := setup(t)
	t.Setenv("COLONIZE_STORE_URL", "memory://production")

	content := `{"url_env": "COLONIZE_STORE_URL", "connection_whitelist": ["memory://cli-test"]}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	_, err := run(t, "seed", "--config", configPath)
	var unsafe *colonize.UnsafeConnectionError
	assert.ErrorAs(t, err, &unsafe)
}

func TestPrintStuck(t *testing.T) {
	var out bytes.Buffer
	printStuck(&out, &colonize.UnresolvableDependencyError{Stuck: []colonize.StuckFactory{
		{Name: "users", Missing: &colonize.DependencyMissingError{Collection: "organisations"}},
		{Name: "posts", Missing: &colonize.DependencyMissingError{Collection: "users", Entity: "primary"}},
	}})

	assert.Contains(t, out.String(), "users waiting on organisations\n")
	assert.Contains(t, out.String(), "posts waiting on users.primary\n")
	assert.NotContains(t, out.String(), "organisations.\n")
}

func TestWriteSnapshotYAML(t *testing.T) {
	oid := primitive.NewObjectID()
	result := &colonize.Result{
		RunID: "run",
		Order: []string{"organisations"},
		Refs:  colonize.Collections{"organisations": {"primary": {"_id": oid}}},
		Stash: colonize.Collections{"organisations": {"primary": {"_id": oid, "tags": []interface{}{oid}}}},
	}

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, writeSnapshot(path, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var snap snapshot
	require.NoError(t, yaml.Unmarshal(data, &snap))
	stash := snap.Stash["organisations"].(map[string]interface{})["primary"].(map[string]interface{})
	assert.Equal(t, oid.Hex(), stash["_id"])
	assert.Equal(t, []interface{}{oid.Hex()}, stash["tags"])

	assert.Error(t, writeSnapshot(filepath.Join(t.TempDir(), "snapshot.txt"), result))
}
