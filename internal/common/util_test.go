package common

import (
	"bytes"
	"testing"
)

func TestWipeByteArray(t *testing.T) {
	buf := []byte("API_KEY=secret")
	WipeByteArray(buf)
	if !bytes.Equal(buf, make([]byte, len(buf))) {
		t.Fatalf("buffer not wiped: %v", buf)
	}

	WipeByteArray(nil)
}

func TestWipeByteArray_SharesBacking(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	WipeByteArray(buf[1:3])
	if !bytes.Equal(buf, []byte{1, 0, 0, 4}) {
		t.Fatalf("expected only the sub-slice to be wiped, got %v", buf)
	}
}

func TestGenerateRandByteArray(t *testing.T) {
	for _, n := range []int{0, 12, 32} {
		if got := GenerateRandByteArray(n); len(got) != n {
			t.Fatalf("expected length %d, got %d", n, len(got))
		}
	}

	a, b := GenerateRandByteArray(32), GenerateRandByteArray(32)
	if bytes.Equal(a, b) {
		t.Fatalf("two random arrays are identical")
	}
}
