package varray_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/vmem/pkg/varray"
	"github.com/calvinalkan/vmem/pkg/vmem"
)

type point struct {
	X, Y int32
	Tag  [4]byte
}

func openArray(t *testing.T, path string) (*varray.Array[point], *vmem.Memory) {
	t.Helper()

	mem, err := vmem.Open(vmem.Options{Path: path, PageSize: 16, PoolPages: 3})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	t.Cleanup(func() { _ = mem.Close() })

	codec, err := varray.NewBinary[point]()
	if err != nil {
		t.Fatalf("NewBinary failed: %v", err)
	}

	arr, err := varray.New(mem, codec)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	return arr, mem
}

func TestArraySetGetRoundTrip(t *testing.T) {
	t.Parallel()

	arr, _ := openArray(t, filepath.Join(t.TempDir(), "points.swap"))

	want := point{X: -7, Y: 1 << 20, Tag: [4]byte{'a', 'b', 'c', 'd'}}

	if err := arr.Set(3, want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := arr.Get(3)
	if err != nil || !ok {
		t.Fatalf("Get = (_, %t, %v), want a record", ok, err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestArrayGetMissingRecord(t *testing.T) {
	t.Parallel()

	arr, _ := openArray(t, filepath.Join(t.TempDir(), "points.swap"))

	if _, ok, err := arr.Get(0); ok || err != nil {
		t.Fatalf("Get on empty array = (%t, %v), want (false, nil)", ok, err)
	}

	if err := arr.Set(5, point{X: 1}); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := arr.Get(4); ok {
		t.Fatal("neighboring index was never set")
	}
}

func TestArrayPartialRecordReadsAsAbsent(t *testing.T) {
	t.Parallel()

	arr, mem := openArray(t, filepath.Join(t.TempDir(), "points.swap"))

	if err := arr.Set(0, point{X: 42}); err != nil {
		t.Fatal(err)
	}

	// Knock out one byte in the middle of the record.
	if _, _, err := mem.Remove(arr.RecordSize() / 2); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := arr.Get(0); ok || err != nil {
		t.Fatalf("Get with a missing byte = (%t, %v), want (false, nil)", ok, err)
	}
}

func TestArrayRecordsSpanPages(t *testing.T) {
	t.Parallel()

	// Page size 16 gives 14 payload bytes per page; a 12-byte record at
	// index 1 straddles pages 0 and 1. Writing enough records also forces
	// evictions through the 3-page pool.
	arr, mem := openArray(t, filepath.Join(t.TempDir(), "points.swap"))

	const n = 20

	for i := range n {
		if err := arr.Set(i, point{X: int32(i), Y: int32(-i)}); err != nil {
			t.Fatalf("Set(%d) failed: %v", i, err)
		}
	}

	if mem.Stats().Evictions == 0 {
		t.Fatal("expected the record set to overflow the page pool")
	}

	for i := range n {
		got, ok, err := arr.Get(i)
		if err != nil || !ok {
			t.Fatalf("Get(%d) = (_, %t, %v), want a record", i, ok, err)
		}

		if got.X != int32(i) || got.Y != int32(-i) {
			t.Fatalf("Get(%d) = %+v", i, got)
		}
	}
}

func TestArrayRemove(t *testing.T) {
	t.Parallel()

	arr, _ := openArray(t, filepath.Join(t.TempDir(), "points.swap"))

	want := point{X: 9}

	if err := arr.Set(2, want); err != nil {
		t.Fatal(err)
	}

	prev, ok, err := arr.Remove(2)
	if err != nil || !ok || prev != want {
		t.Fatalf("Remove = (%+v, %t, %v), want (%+v, true, nil)", prev, ok, err, want)
	}

	if _, ok, _ := arr.Get(2); ok {
		t.Fatal("record should be gone after Remove")
	}

	if _, ok, _ := arr.Remove(2); ok {
		t.Fatal("second Remove should report no prior record")
	}
}

func TestArraySurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "points.swap")

	arr, mem := openArray(t, path)

	want := point{X: 11, Y: 22, Tag: [4]byte{'t'}}

	if err := arr.Set(7, want); err != nil {
		t.Fatal(err)
	}

	if err := mem.Close(); err != nil {
		t.Fatal(err)
	}

	arr2, _ := openArray(t, path)

	got, ok, err := arr2.Get(7)
	if err != nil || !ok {
		t.Fatalf("Get after reopen = (_, %t, %v), want a record", ok, err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch after reopen (-want +got):\n%s", diff)
	}
}

func TestArrayNegativeIndex(t *testing.T) {
	t.Parallel()

	arr, _ := openArray(t, filepath.Join(t.TempDir(), "points.swap"))

	if err := arr.Set(-1, point{}); !errors.Is(err, vmem.ErrInvalidInput) {
		t.Fatalf("Set(-1): err = %v, want ErrInvalidInput", err)
	}

	if _, _, err := arr.Get(-1); !errors.Is(err, vmem.ErrInvalidInput) {
		t.Fatalf("Get(-1): err = %v, want ErrInvalidInput", err)
	}
}

func TestNewBinaryRejectsUnsizedTypes(t *testing.T) {
	t.Parallel()

	type unsized struct {
		Name string
	}

	if _, err := varray.NewBinary[unsized](); !errors.Is(err, vmem.ErrInvalidInput) {
		t.Fatalf("NewBinary for a string field: err = %v, want ErrInvalidInput", err)
	}
}
