package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/service"
	"github.com/Veraticus/pantry-intelligence/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pantryEnv struct {
	t      *testing.T
	dbPath string
	dir    string
}

func newPantryEnv(t *testing.T) *pantryEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	return &pantryEnv{t: t, dir: dir, dbPath: filepath.Join(dir, "pantry.db")}
}

// run executes one pantry invocation against the environment's database.
func (e *pantryEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	viper.Reset()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", e.dbPath, "--household", "h1", "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *pantryEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	require.NoError(e.t, err, out)
	return out
}

func (e *pantryEnv) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMigrate(t *testing.T) {
	env := newPantryEnv(t)

	out := env.mustRun("migrate", "--status")
	assert.Contains(t, out, "Current version: 0")

	out = env.mustRun("migrate")
	assert.Contains(t, out, "schema version 4")

	out = env.mustRun("migrate", "--status")
	assert.Contains(t, out, "Current version: 4")
	assert.NotContains(t, out, "upgrade")
}

func TestInventoryLifecycle(t *testing.T) {
	env := newPantryEnv(t)

	out := env.mustRun("inventory", "add", "Milk", "2", "--unit", "l")
	assert.Contains(t, out, "Added 2 l of Milk")
	assert.Contains(t, out, "(estimated)", "milk has a known shelf life")

	out = env.mustRun("inventory", "add", "Dragonfruit jam", "1", "--expires", "2031-01-01")
	assert.Contains(t, out, "expires 2031-01-01")
	assert.NotContains(t, out, "estimated")

	out = env.mustRun("inventory", "list")
	assert.Contains(t, out, "Milk")
	assert.Contains(t, out, "Dragonfruit jam")

	out = env.mustRun("inventory", "consume", "milk", "3")
	assert.Contains(t, out, "Only 2 of Milk was in stock")

	out = env.mustRun("inventory", "list")
	assert.NotContains(t, out, "Milk")

	_, err := env.run("", "inventory", "consume", "milk", "1")
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "no Milk in the pantry")

	_, err = env.run("", "inventory", "consume", "caviar", "1")
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "not a known product")

	_, err = env.run("", "inventory", "add", "rice", "-1")
	assert.Error(t, err)
}

func TestCheck_UsesSubstitutes(t *testing.T) {
	env := newPantryEnv(t)

	env.mustRun("equivalents", "import")
	env.mustRun("inventory", "add", "margarine", "1")
	env.mustRun("inventory", "add", "all-purpose flour", "1")

	out := env.mustRun("check", "Butter", "flour", "saffron")

	assert.Contains(t, out, "butter")
	assert.Contains(t, out, "substitute")
	assert.Contains(t, out, "85%")
	assert.Contains(t, out, "maybe", "flour partially matches all-purpose flour")
	assert.Contains(t, out, "1 of 3 ingredients missing")
}

func TestEquivalents_HouseholdRules(t *testing.T) {
	env := newPantryEnv(t)
	env.mustRun("equivalents", "import")

	out := env.mustRun("equivalents", "add", "Butter", "Ghee", "--confidence", "0.9", "--ratio", "1:1")
	id := regexp.MustCompile(`Added rule (\d+)`).FindStringSubmatch(out)
	require.Len(t, id, 2, out)

	out = env.mustRun("equivalents", "resolve", "butter")
	assert.Less(t, strings.Index(out, "ghee"), strings.Index(out, "margarine"), "household rule ranks first")

	out = env.mustRun("equivalents", "list", "--mine")
	assert.Contains(t, out, "butter → ghee")
	assert.NotContains(t, out, "margarine")

	env.mustRun("equivalents", "edit", id[1], "--confidence", "0.3")
	out = env.mustRun("equivalents", "list", "--mine")
	assert.Contains(t, out, "0.30")

	_, err := env.run("", "equivalents", "add", "butter", "ghee")
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "already exists")

	_, err = env.run("", "equivalents", "add", "butter", "ghee", "--ratio", "lots")
	assert.Error(t, err)

	out, err = env.run("n\n", "equivalents", "delete", id[1])
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing deleted")

	out, err = env.run("y\n", "equivalents", "delete", id[1])
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted rule "+id[1])

	out = env.mustRun("equivalents", "list", "--mine")
	assert.Contains(t, out, "No equivalency edges")
}

func TestEquivalents_SystemRulesAreReadOnly(t *testing.T) {
	env := newPantryEnv(t)
	env.mustRun("equivalents", "import")

	out := env.mustRun("equivalents", "list", "--system", "--name", "spinach")
	id := regexp.MustCompile(`(?m)^\s*(\d+)\s`).FindStringSubmatch(out)
	require.Len(t, id, 2, out)

	_, err := env.run("", "equivalents", "deactivate", id[1])
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "system rules cannot be changed")

	env.mustRun("equivalents", "deactivate", id[1], "--system")
	out = env.mustRun("equivalents", "resolve", "spinach")
	assert.Contains(t, out, "No equivalents")

	env.mustRun("equivalents", "activate", id[1], "--system")
	out = env.mustRun("equivalents", "resolve", "spinach")
	assert.Contains(t, out, "lettuce")
}

func TestEquivalents_ImportFile(t *testing.T) {
	env := newPantryEnv(t)
	path := env.writeFile("rules.yaml", `edges:
  - {subject: cilantro, equivalent: parsley, confidence: 0.5, ratio: "1:1"}
`)

	out := env.mustRun("equivalents", "import", path)
	assert.Contains(t, out, "Imported 1 rules")

	out = env.mustRun("equivalents", "resolve", "Cilantro")
	assert.Contains(t, out, "parsley")

	_, err := env.run("", "equivalents", "import", filepath.Join(env.dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestImportAndReplenish(t *testing.T) {
	env := newPantryEnv(t)
	now := time.Now()

	var history strings.Builder
	history.WriteString("name,quantity,occurred_at\n")
	for d := 1; d <= 10; d++ {
		fmt.Fprintf(&history, "milk,1,%s\n", now.AddDate(0, 0, -d).Format(time.DateOnly))
	}
	history.WriteString("milk,lots,2025-01-01\n")

	out := env.mustRun("import", "events", env.writeFile("history.csv", history.String()))
	assert.Contains(t, out, "Imported 10 of 11 rows")
	assert.Contains(t, out, "line 12")

	inventory := "name,quantity,unit\nmilk,1,l\nyogurt,2,cup\n"
	out = env.mustRun("import", "inventory", env.writeFile("inventory.csv", inventory))
	assert.Contains(t, out, "Imported 2 of 2 rows")

	metricsPath := filepath.Join(env.dir, "pantry.prom")
	out = env.mustRun("replenish", "--save", "--horizon", "30", "--metrics-textfile", metricsPath)
	assert.Contains(t, out, "milk")
	assert.Contains(t, out, "Saved draft")

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "pantry_recommendations_total")

	out = env.mustRun("drafts", "list")
	id := regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f-]{27}`).FindString(out)
	require.NotEmpty(t, id, out)

	out = env.mustRun("drafts", "show", id)
	assert.Contains(t, out, "milk")
}

func TestReplenish_ExportsToSheet(t *testing.T) {
	env := newPantryEnv(t)
	mock := sheets.NewMockWriter()

	original := newSheetWriter
	newSheetWriter = func(*cobra.Command) (service.ShoppingListWriter, error) { return mock, nil }
	t.Cleanup(func() { newSheetWriter = original })

	env.mustRun("inventory", "add", "yogurt", "1", "--expires", time.Now().AddDate(0, 0, 1).Format(time.DateOnly))

	out := env.mustRun("replenish", "--sheet")
	assert.Contains(t, out, "Exported to Google Sheets")

	require.Equal(t, 1, mock.WriteCallCount)
	require.Len(t, mock.LastDraft.Items, 1)
	assert.Equal(t, "h1", mock.LastDraft.HouseholdID)
	assert.NotEmpty(t, mock.LastDraft.ID, "exported lists are saved first")
}
