package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExpandServerEnv(t *testing.T) {
	os.Setenv("BINKS_TEST_TOKEN", "secret123")
	defer os.Unsetenv("BINKS_TEST_TOKEN")

	got := ExpandServerEnv(map[string]string{
		"TOKEN":   "${BINKS_TEST_TOKEN}",
		"TOKEN2":  "$BINKS_TEST_TOKEN",
		"LITERAL": "no-vars-here",
		"UNSET":   "${BINKS_TEST_UNSET_VAR}",
	})
	want := map[string]string{
		"TOKEN":   "secret123",
		"TOKEN2":  "secret123",
		"LITERAL": "no-vars-here",
		"UNSET":   "",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandServerEnv() = %v, want %v", got, want)
	}
}

func TestExpandEnvVarsInDataCoercesScalars(t *testing.T) {
	os.Setenv("BINKS_TEST_NUM", "42")
	os.Setenv("BINKS_TEST_BOOL", "true")
	defer os.Unsetenv("BINKS_TEST_NUM")
	defer os.Unsetenv("BINKS_TEST_BOOL")

	in := map[string]any{
		"count":   "${BINKS_TEST_NUM}",
		"enabled": "${BINKS_TEST_BOOL}",
		"nested": map[string]any{
			"list": []any{"${BINKS_TEST_NUM}", "literal"},
		},
	}
	out := ExpandEnvVarsInData(in).(map[string]any)

	if out["count"] != 42 {
		t.Errorf("count = %v (%T), want int 42", out["count"], out["count"])
	}
	if out["enabled"] != true {
		t.Errorf("enabled = %v (%T), want bool true", out["enabled"], out["enabled"])
	}
	nested := out["nested"].(map[string]any)
	list := nested["list"].([]any)
	if list[0] != 42 {
		t.Errorf("list[0] = %v, want int 42", list[0])
	}
	if list[1] != "literal" {
		t.Errorf("list[1] = %v, want literal", list[1])
	}
}

func TestLoadEnvFilesLoadsDotEnvFromCWD(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BINKS_TEST_DOTENV=fromfile\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("BINKS_TEST_DOTENV")
	defer os.Unsetenv("BINKS_TEST_DOTENV")

	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	if err := LoadEnvFiles(); err != nil {
		t.Fatalf("LoadEnvFiles() error = %v", err)
	}
	if got := os.Getenv("BINKS_TEST_DOTENV"); got != "fromfile" {
		t.Errorf("BINKS_TEST_DOTENV = %q, want %q", got, "fromfile")
	}
}

func TestLoadEnvFilesMissingIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	if err := LoadEnvFiles(); err != nil {
		t.Errorf("LoadEnvFiles() with no .env files = %v, want nil", err)
	}
}
