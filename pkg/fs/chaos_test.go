package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func Test_Chaos_Fails_Nth_Call_And_Only_That_Call(t *testing.T) {
	t.Parallel()

	chaos := NewChaos(NewReal())
	path := filepath.Join(t.TempDir(), "chaos")

	f, err := chaos.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile(%q): %v", path, err)
	}
	defer f.Close()

	chaos.FailAt(ChaosWriteAt, 2)

	if _, err := f.WriteAt([]byte{1}, 0); err != nil {
		t.Fatalf("WriteAt #1 should pass through: %v", err)
	}

	if _, err := f.WriteAt([]byte{2}, 1); !errors.Is(err, ErrInjected) {
		t.Fatalf("WriteAt #2: err=%v, want %v", err, ErrInjected)
	}

	if _, err := f.WriteAt([]byte{3}, 2); err != nil {
		t.Fatalf("WriteAt #3 should pass through again: %v", err)
	}
}

func Test_Chaos_Counts_Calls_Across_Files(t *testing.T) {
	t.Parallel()

	chaos := NewChaos(NewReal())
	dir := t.TempDir()

	f1, err := chaos.OpenFile(filepath.Join(dir, "a"), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f1.Close()

	f2, err := chaos.OpenFile(filepath.Join(dir, "b"), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()

	chaos.FailAt(ChaosWriteAt, 2)

	if _, err := f1.WriteAt([]byte{1}, 0); err != nil {
		t.Fatalf("WriteAt on first file: %v", err)
	}

	if _, err := f2.WriteAt([]byte{2}, 0); !errors.Is(err, ErrInjected) {
		t.Fatalf("second WriteAt overall must fail even on another file, err=%v", err)
	}
}

func Test_Chaos_Fails_Open(t *testing.T) {
	t.Parallel()

	chaos := NewChaos(NewReal())
	path := filepath.Join(t.TempDir(), "chaos")

	chaos.FailAt(ChaosOpen, 1)

	if _, err := chaos.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644); !errors.Is(err, ErrInjected) {
		t.Fatalf("OpenFile: err=%v, want %v", err, ErrInjected)
	}

	f, err := chaos.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile after injected fault: %v", err)
	}
	_ = f.Close()
}

func Test_Chaos_Disarmed_Passes_Everything_Through(t *testing.T) {
	t.Parallel()

	chaos := NewChaos(NewReal())
	path := filepath.Join(t.TempDir(), "chaos")

	chaos.FailAt(ChaosReadAt, 1)
	chaos.FailAt(ChaosReadAt, 0) // disarm

	f, err := chaos.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := f.WriteAt([]byte{9}, 0); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt after disarm: %v", err)
	}
	if buf[0] != 9 {
		t.Fatalf("read %d, want 9", buf[0])
	}
}
