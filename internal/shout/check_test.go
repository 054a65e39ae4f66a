package shout_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.followtheprocess.codes/test"
	"go.uber.org/goleak"

	"shout/internal/shout"
)

// writeConfig drops a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shout.toml")

	err := os.WriteFile(path, []byte(contents), 0o644)
	test.Ok(t, err)

	return path
}

func TestCheckValid(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeConfig(t, `
debug = true
silenced = ["a", "b.c"]
silenced-urls = ["detail target"]
`)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	app := shout.New(false, stdout, stderr)

	err := app.Check(t.Context(), shout.CheckOptions{Config: path})
	test.Ok(t, err)

	test.Diff(t, stdout.String(), "Success: config is valid\n")
}

func TestCheckMissingConfigUsesDefaults(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	app := shout.New(false, stdout, stderr)

	err := app.Check(t.Context(), shout.CheckOptions{
		Config: filepath.Join(t.TempDir(), "nope.toml"),
	})
	test.Ok(t, err)

	test.Diff(t, stdout.String(), "Success: config is valid\n")
}

func TestCheckInvalid(t *testing.T) {
	path := writeConfig(t, `
debug = true
silenced = "oops"
`)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	app := shout.New(false, stdout, stderr)

	err := app.Check(t.Context(), shout.CheckOptions{Config: path})
	test.Err(t, err)

	test.True(
		t,
		strings.Contains(stdout.String(), "shout.E001"),
		test.Context("stdout was %q", stdout.String()),
	)
	test.True(
		t,
		strings.Contains(stdout.String(), "appears to be a string"),
		test.Context("stdout was %q", stdout.String()),
	)
}

func TestCheckJSON(t *testing.T) {
	path := writeConfig(t, `
debug = true
silenced = "oops"
silenced-urls = ["ok"]
`)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	app := shout.New(false, stdout, stderr)

	err := app.Check(t.Context(), shout.CheckOptions{Config: path, Format: "json"})
	test.Err(t, err)

	var findings []struct {
		Key     string `json:"key"`
		ID      string `json:"id"`
		Message string `json:"message"`
		Hint    string `json:"hint"`
	}

	test.Ok(t, json.Unmarshal(stdout.Bytes(), &findings))
	test.Equal(t, len(findings), 1)
	test.Equal(t, findings[0].Key, "silenced")
	test.Equal(t, findings[0].ID, "shout.E001")
}

func TestCheckYAML(t *testing.T) {
	path := writeConfig(t, `
debug = true
silenced = "oops"
`)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	app := shout.New(false, stdout, stderr)

	err := app.Check(t.Context(), shout.CheckOptions{Config: path, Format: "yaml"})
	test.Err(t, err)

	test.True(
		t,
		strings.Contains(stdout.String(), "id: shout.E001"),
		test.Context("stdout was %q", stdout.String()),
	)
}

func TestCheckBadFormat(t *testing.T) {
	path := writeConfig(t, "debug = true")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	app := shout.New(false, stdout, stderr)

	err := app.Check(t.Context(), shout.CheckOptions{Config: path, Format: "xml"})
	test.Err(t, err)
}
