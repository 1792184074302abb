package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/vmem/pkg/fs"
	"github.com/calvinalkan/vmem/pkg/vmem"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(fs.NewReal(), t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.PageSize != vmem.DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", cfg.PageSize, vmem.DefaultPageSize)
	}

	if cfg.PoolPages != vmem.DefaultPoolPages {
		t.Errorf("PoolPages = %d, want %d", cfg.PoolPages, vmem.DefaultPoolPages)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoadConfigProjectFileOverridesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// JSONC: comments and trailing commas are allowed.
	content := `{
		// small pages for testing
		"page_size": 64,
		"pool_pages": 4,
	}`

	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(fs.NewReal(), dir, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.PageSize != 64 {
		t.Errorf("PageSize = %d, want 64", cfg.PageSize)
	}

	if cfg.PoolPages != 4 {
		t.Errorf("PoolPages = %d, want 4", cfg.PoolPages)
	}

	// Unset fields keep their defaults.
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoadConfigExplicitFileMustExist(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(fs.NewReal(), t.TempDir(), "does-not-exist.json")
	if !errors.Is(err, errConfigFileNotFound) {
		t.Fatalf("err = %v, want errConfigFileNotFound", err)
	}
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(fs.NewReal(), dir, path)
	if !errors.Is(err, errConfigInvalid) {
		t.Fatalf("err = %v, want errConfigInvalid", err)
	}
}

// fakeFS serves file contents from memory. Only ReadFile is implemented;
// LoadConfig must not touch anything else.
type fakeFS struct {
	files map[string][]byte
}

func (f fakeFS) Open(string) (fs.File, error)   { panic("fakeFS.Open: not implemented") }
func (f fakeFS) Create(string) (fs.File, error) { panic("fakeFS.Create: not implemented") }
func (f fakeFS) OpenFile(string, int, os.FileMode) (fs.File, error) {
	panic("fakeFS.OpenFile: not implemented")
}

func (f fakeFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}

	return data, nil
}

var _ fs.FS = fakeFS{}

func TestLoadConfigReadsThroughProvidedFilesystem(t *testing.T) {
	t.Parallel()

	dir := "/virtual"
	fsys := fakeFS{files: map[string][]byte{
		filepath.Join(dir, ConfigFileName): []byte(`{"pool_pages": 5}`),
	}}

	cfg, err := LoadConfig(fsys, dir, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.PoolPages != 5 {
		t.Errorf("PoolPages = %d, want 5 (config must be read via the provided filesystem)", cfg.PoolPages)
	}
}
