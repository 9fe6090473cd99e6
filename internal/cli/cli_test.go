package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/statcan/zonetool/internal/extupdate"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func emptyConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.yaml")
}

func TestParseResourceArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		cpuLimit *float64
		ramLimit *float64
		wantErr  string
	}{
		{name: "requests only", args: []string{"1", "4"}},
		{name: "cpu limit", args: []string{"0.5", "4", "2"}, cpuLimit: ptr(2)},
		{name: "both limits", args: []string{"0.5", "4", "2", "8"}, cpuLimit: ptr(2), ramLimit: ptr(8)},
		{name: "not a number", args: []string{"one", "4"}, wantErr: "invalid cpu_request"},
		{name: "bad ram limit", args: []string{"1", "4", "2", "lots"}, wantErr: "invalid ram_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseResourceArgs(tt.args)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !equalPtr(req.CPULimit, tt.cpuLimit) || !equalPtr(req.RAMLimit, tt.ramLimit) {
				t.Errorf("limits = %v/%v, want %v/%v", req.CPULimit, req.RAMLimit, tt.cpuLimit, tt.ramLimit)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

func equalPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestResourcesDryRun(t *testing.T) {
	out, err := execute(t, "--config", emptyConfig(t), "resources", "--dry-run", "1", "4", "2")
	if err != nil {
		t.Fatalf("resources: %v", err)
	}
	for _, want := range []string{"CPU limit: 2 CPU cores", "RAM limit: 4 GiB RAM", "kubectl patch notebook"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "--config", emptyConfig(t), "resources", "--dry-run", "20", "4"); err == nil {
		t.Error("expected error above the configured CPU maximum")
	}

	t.Setenv("ZONETOOL_RESOURCES_CPU_MAX", "32")
	if _, err := execute(t, "--config", emptyConfig(t), "resources", "--dry-run", "20", "4"); err != nil {
		t.Errorf("raised maximum should allow 20 cores: %v", err)
	}
}

func TestExtensionsCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ms-python/python/latest":
			w.Write([]byte(`{"version": "2024.1.0"}`))
		case "/repos/acme/tool/releases/latest":
			w.Write([]byte(`{"tag_name": "v1.0.0"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	t.Setenv("ZONETOOL_REGISTRY_OPENVSX_URL", srv.URL)
	t.Setenv("ZONETOOL_REGISTRY_GITHUB_API_URL", srv.URL)

	df := filepath.Join(t.TempDir(), "Dockerfile")
	text := "RUN code-server --install-extension ms-python.python@2023.1.0\n" +
		"RUN wget https://github.com/acme/tool/releases/download/v1.0.0/tool-1.0.0.vsix\n"
	if err := os.WriteFile(df, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", emptyConfig(t), "extensions", "check", "--dockerfile", df, "-o", "json")
	if err != nil {
		t.Fatalf("extensions check: %v", err)
	}
	var report extupdate.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, out)
	}
	if len(report.Outdated) != 1 || report.Outdated[0].ID != "ms-python.python" || report.Outdated[0].NewVersion != "2024.1.0" {
		t.Errorf("unexpected outdated entries: %+v", report.Outdated)
	}
	if len(report.Hosted) != 1 || report.Hosted[0].Status != extupdate.StatusCurrent {
		t.Errorf("unexpected hosted rows: %+v", report.Hosted)
	}

	if _, err := execute(t, "--config", emptyConfig(t), "extensions", "check", "--dockerfile", df+".missing", "-o", "json"); err == nil {
		t.Error("expected error for a missing Dockerfile")
	}
}

func TestExtensionsUpdateNoPR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version": "2.0.0"}`))
	}))
	defer srv.Close()
	t.Setenv("ZONETOOL_REGISTRY_OPENVSX_URL", srv.URL)

	df := filepath.Join(t.TempDir(), "Dockerfile")
	if err := os.WriteFile(df, []byte("RUN code-server --install-extension a.b@1.0.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "--config", emptyConfig(t), "extensions", "update", "--dockerfile", df, "-o", "text", "--dry-run", "--no-pr"); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	data, _ := os.ReadFile(df)
	if strings.Contains(string(data), "2.0.0") {
		t.Error("dry run must not rewrite the Dockerfile")
	}

	if _, err := execute(t, "--config", emptyConfig(t), "extensions", "update", "--dockerfile", df, "-o", "text", "--dry-run=false", "--no-pr"); err != nil {
		t.Fatalf("update --no-pr: %v", err)
	}
	data, _ = os.ReadFile(df)
	if !strings.Contains(string(data), "a.b@2.0.0") {
		t.Errorf("Dockerfile not rewritten:\n%s", data)
	}
}

func TestCheckpointsCommands(t *testing.T) {
	content := t.TempDir()
	t.Setenv("ZONETOOL_CHECKPOINTS_ROOT", t.TempDir())
	t.Setenv("ZONETOOL_CHECKPOINTS_CONTENT_ROOT", content)
	if err := os.WriteFile(filepath.Join(content, "a.ipynb"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := emptyConfig(t)

	if _, err := execute(t, "--config", cfg, "checkpoints", "create", "a.ipynb"); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := execute(t, "--config", cfg, "checkpoints", "list", "--json=false", "a.ipynb")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.HasPrefix(out, "checkpoint\t") {
		t.Errorf("list output = %q", out)
	}
	if _, err := execute(t, "--config", cfg, "checkpoints", "delete", "--id", "checkpoint", "a.ipynb"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := execute(t, "--config", cfg, "checkpoints", "restore", "--id", "checkpoint", "a.ipynb"); err == nil {
		t.Error("restore after delete should fail")
	}
}

func TestConfigValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("registry:\n  cache_size: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "config", "validate", path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(out, "/registry/cache_size") {
		t.Errorf("output should name the failing key:\n%s", out)
	}

	if err := os.WriteFile(path, []byte("registry:\n  cache_size: 8\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "config", "validate", path); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	buildVersion = "1.2.3"
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != "1.2.3" {
		t.Errorf("version --short = %q", out)
	}
}
