package vmem

import "testing"

func TestDataCapacity(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		pageSize int
		want     int
	}{
		{9, 8},
		{16, 14},
		{18, 16},
		{4096, 3640},
	} {
		if got := dataCapacity(tc.pageSize); got != tc.want {
			t.Errorf("dataCapacity(%d) = %d, want %d", tc.pageSize, got, tc.want)
		}
	}
}

func TestBitmapPlusPayloadFitsPage(t *testing.T) {
	t.Parallel()

	for _, pageSize := range []int{2, 9, 16, 64, 100, 4096} {
		capacity := dataCapacity(pageSize)
		if total := bitmapBytes(capacity) + capacity; total > pageSize {
			t.Errorf("page size %d: bitmap %d + payload %d overflows the slot",
				pageSize, bitmapBytes(capacity), capacity)
		}
	}
}

func TestPageOffset(t *testing.T) {
	t.Parallel()

	// Signature occupies the first two bytes; slots follow back to back.
	for _, tc := range []struct {
		page int
		want int64
	}{
		{0, 2},
		{1, 18},
		{2, 34},
	} {
		if got := pageOffset(16, tc.page); got != tc.want {
			t.Errorf("pageOffset(16, %d) = %d, want %d", tc.page, got, tc.want)
		}
	}
}
