package cli

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// setupEnv points configuration at a scratch directory.
func setupEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DB_PATH", filepath.Join(dir, "data", "huginn.db"))
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FILE", "")
	t.Setenv("MINIO_ENDPOINT", "")
	return dir
}

func writeArchive(t *testing.T, dir string, files map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, body := range files {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatalf("write body: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}

	path := filepath.Join(dir, "export.tar.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

const testManifest = `[
	{"id": "n1", "text": "hello world", "timestamp": "2024-01-01",
	 "attachments": [{"fileName": "a.txt", "filePath": "files/a.txt"}]},
	{"id": "n2", "text": "goodbye moon"}
]`

func ingestFixture(t *testing.T, dir string) {
	t.Helper()

	archivePath := writeArchive(t, dir, map[string]string{
		"notes.json":  testManifest,
		"files/a.txt": "attachment",
	})
	out, err := run(t, "ingest", archivePath)
	if err != nil {
		t.Fatalf("ingest error = %v", err)
	}
	if !strings.Contains(strings.ToUpper(out), "UPLOAD ID") {
		t.Errorf("ingest output = %q, want summary table", out)
	}
}

func TestIngestAndSearch(t *testing.T) {
	dir := setupEnv(t)
	ingestFixture(t, dir)

	out, err := run(t, "search", "hello")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if !strings.Contains(out, "n1") || strings.Contains(out, "n2") {
		t.Errorf("search output = %q, want only n1", out)
	}

	out, err = run(t, "search", "-f", "json", "moon")
	if err != nil {
		t.Fatalf("search json error = %v", err)
	}
	var results []searchOutput
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(results) != 1 || results[0].ID != "n2" || results[0].Content != "goodbye moon" {
		t.Errorf("results = %+v, want n2", results)
	}
	if results[0].CreatedAt != nil {
		t.Errorf("CreatedAt = %q, want nil", *results[0].CreatedAt)
	}
}

func TestSearch_NoResults(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "search", "nothing")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if !strings.Contains(out, "No results found") {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, "search", "-f", "json", "nothing")
	if err != nil {
		t.Fatalf("search json error = %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("json output = %q, want []", out)
	}
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no query", args: []string{"search"}, wantErr: "requires at least 1 arg"},
		{name: "blank query", args: []string{"search", "  "}, wantErr: "q"},
		{name: "bad format", args: []string{"search", "-f", "xml", "x"}, wantErr: "unknown format"},
		{name: "limit too high", args: []string{"search", "-l", "500", "x"}, wantErr: "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t)

			_, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestIngest_Errors(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		dir := setupEnv(t)
		path := writeArchive(t, dir, map[string]string{"readme.txt": "hi"})

		_, err := run(t, "ingest", path)
		if err == nil || err.Error() != "No notes.json found" {
			t.Errorf("error = %v, want No notes.json found", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		dir := setupEnv(t)

		_, err := run(t, "ingest", filepath.Join(dir, "absent.tar.gz"))
		if err == nil || !strings.Contains(err.Error(), "failed to open archive") {
			t.Errorf("error = %v, want open failure", err)
		}
	})
}

func TestDeleteAndStats(t *testing.T) {
	dir := setupEnv(t)
	ingestFixture(t, dir)

	out, err := run(t, "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	if upper := strings.ToUpper(out); !strings.Contains(upper, "NOTES") || !strings.Contains(upper, "ATTACHMENTS") {
		t.Errorf("stats output = %q", out)
	}

	out, err = run(t, "delete", "n1")
	if err != nil {
		t.Fatalf("delete error = %v", err)
	}
	if !strings.Contains(out, "Deleted note n1") {
		t.Errorf("delete output = %q", out)
	}

	out, err = run(t, "search", "hello")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if !strings.Contains(out, "No results found") {
		t.Errorf("search after delete = %q, want no results", out)
	}

	_, err = run(t, "delete", "n1")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("second delete error = %v, want not found", err)
	}
}

func TestDBFlagOverridesEnv(t *testing.T) {
	dir := setupEnv(t)
	ingestFixture(t, dir)

	other := filepath.Join(dir, "other.db")
	out, err := run(t, "--db", other, "search", "hello")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if !strings.Contains(out, "No results found") {
		t.Errorf("output = %q, want empty database", out)
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("stat %s: %v", other, err)
	}
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "short", in: "hello", width: 10, want: "hello"},
		{name: "whitespace collapsed", in: "a\n\tb   c", width: 10, want: "a b c"},
		{name: "truncated", in: "abcdefghij", width: 5, want: "abcd…"},
		{name: "runes", in: "ééééé", width: 3, want: "éé…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snippet(tt.in, tt.width); got != tt.want {
				t.Errorf("snippet() = %q, want %q", got, tt.want)
			}
		})
	}
}
