package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lessoncut/internal/config"
	"lessoncut/internal/testsupport"
)

type cliTestEnv struct {
	cfg         *config.Config
	configPath  string
	projectPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("LESSONCUT_RENDERER", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	projectPath := filepath.Join(base, "lesson.json")
	data, err := json.Marshal(testsupport.NewProject())
	if err != nil {
		t.Fatalf("marshal project: %v", err)
	}
	if err := os.WriteFile(projectPath, data, 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}

	return &cliTestEnv{cfg: cfg, configPath: configPath, projectPath: projectPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
output_dir = %q
log_dir = %q
api_bind = %q

[export]
renderer_binary = %q
max_retries = %d
retry_backoff_seconds = 0

[logging]
level = "error"
`,
		cfg.Paths.OutputDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Export.RendererBinary,
		cfg.Export.MaxRetries,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
