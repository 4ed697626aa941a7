package fw

import (
	"bytes"
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"socgen/hw/hwio"
)

func writeFile(tb testing.TB, content []byte) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "bios.bin")
	if err := os.WriteFile(path, content, 0644); err != nil {
		tb.Fatal(err)
	}
	return path
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		raw   []byte
		width int
		order hwio.ByteOrder
		want  []uint64
	}{
		{
			name:  "32-bit little endian",
			raw:   []byte{0x01, 0x02, 0x03, 0x04},
			width: 32, order: hwio.LittleEndian,
			want: []uint64{0x04030201},
		},
		{
			name:  "32-bit big endian",
			raw:   []byte{0x01, 0x02, 0x03, 0x04},
			width: 32, order: hwio.BigEndian,
			want: []uint64{0x01020304},
		},
		{
			name:  "32-bit little endian partial",
			raw:   []byte{0x01, 0x02, 0x03},
			width: 32, order: hwio.LittleEndian,
			want: []uint64{0x00030201},
		},
		{
			name:  "32-bit big endian partial",
			raw:   []byte{0x01, 0x02, 0x03},
			width: 32, order: hwio.BigEndian,
			want: []uint64{0x00010203},
		},
		{
			name:  "16-bit two words and a half",
			raw:   []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee},
			width: 16, order: hwio.LittleEndian,
			want: []uint64{0xbbaa, 0xddcc, 0x00ee},
		},
		{
			name:  "64-bit big endian",
			raw:   []byte{1, 2, 3, 4, 5, 6, 7, 8},
			width: 64, order: hwio.BigEndian,
			want: []uint64{0x0102030405060708},
		},
		{
			name:  "empty",
			raw:   nil,
			width: 32, order: hwio.LittleEndian,
			want: []uint64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.raw, tt.width, tt.order)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, width := range []int{8, 16, 32, 64} {
		for _, order := range []hwio.ByteOrder{hwio.LittleEndian, hwio.BigEndian} {
			nwords := 1 + rng.IntN(64)
			raw := make([]byte, nwords*width/8)
			for i := range raw {
				raw[i] = byte(rng.Uint32())
			}

			words := Decode(raw, width, order)
			if len(words) != nwords {
				t.Errorf("width=%d order=%s: got %d words, want %d", width, order, len(words), nwords)
			}
			if got := Encode(words, width, order); !bytes.Equal(got, raw) {
				t.Errorf("width=%d order=%s: round trip mismatch", width, order)
			}
		}
	}
}

func TestZeroPadding(t *testing.T) {
	for _, order := range []hwio.ByteOrder{hwio.LittleEndian, hwio.BigEndian} {
		for length := 1; length <= 11; length++ {
			raw := bytes.Repeat([]byte{0xff}, length)
			words := Decode(raw, 32, order)

			if want := (length + 3) / 4; len(words) != want {
				t.Errorf("order=%s len=%d: got %d words, want %d", order, length, len(words), want)
				continue
			}
			for i, w := range words[:len(words)-1] {
				if w != 0xffffffff {
					t.Errorf("order=%s len=%d: word %d = %08x, want ffffffff", order, length, i, w)
				}
			}

			// Only the high-order bytes of the last word are padding.
			rem := length % 4
			if rem == 0 {
				rem = 4
			}
			want := uint64(1)<<(8*rem) - 1
			if last := words[len(words)-1]; last != want {
				t.Errorf("order=%s len=%d: last word = %08x, want %08x", order, length, last, want)
			}
		}
	}
}

func TestOpen(t *testing.T) {
	path := writeFile(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05})
	img, err := Open(path, 32, hwio.LittleEndian)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint64{0x04030201, 0x05}, img.Words); diff != "" {
		t.Errorf("words mismatch (-want +got):\n%s", diff)
	}
	if img.Size != 5 {
		t.Errorf("Size = %d, want 5", img.Size)
	}
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.bin"), 32, hwio.LittleEndian)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(missing) = %v, want fs.ErrNotExist", err)
	}

	path := writeFile(t, []byte{1, 2, 3})
	var werr *WidthError
	if _, err := Open(path, 24, hwio.LittleEndian); !errors.As(err, &werr) {
		t.Errorf("Open(width=24) = %v, want *WidthError", err)
	}
}

type fakeMem struct {
	capacity int
	words    []uint64
}

func (m *fakeMem) Capacity() int { return m.capacity }
func (m *fakeMem) Load(words []uint64) error {
	m.words = append([]uint64(nil), words...)
	return nil
}

func TestWriteTo(t *testing.T) {
	img := &Image{Words: []uint64{1, 2, 3}, Width: 32}

	small := &fakeMem{capacity: 2}
	var terr *ImageTooLargeError
	if err := img.WriteTo(small); !errors.As(err, &terr) {
		t.Fatalf("WriteTo(small) = %v, want *ImageTooLargeError", err)
	}
	if terr.Words != 3 || terr.Capacity != 2 {
		t.Errorf("error = %+v", terr)
	}
	if small.words != nil {
		t.Errorf("memory written despite error")
	}

	exact := &fakeMem{capacity: 3}
	if err := img.WriteTo(exact); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(img.Words, exact.words); diff != "" {
		t.Errorf("loaded words mismatch (-want +got):\n%s", diff)
	}
}
