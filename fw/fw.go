// Package fw loads raw firmware images and repacks them into the native word
// layout of a CPU, ready to initialize boot memory.
//
// Firmware files have no header nor length field: the whole file is the
// image. A trailing partial word is zero-extended: its bytes are decoded as a
// shorter integer, so the missing bytes are the most significant ones
// whatever the byte order.
package fw

import (
	"fmt"
	"io"
	"os"

	"socgen/emu/log"
	"socgen/hw/hwio"
)

// Image is a firmware image, as a sequence of words.
type Image struct {
	Words []uint64
	Width int            // word width, in bits
	Order hwio.ByteOrder // byte order used to build words
	Size  int            // size of the raw image, in bytes
}

// A WidthError is returned for unsupported word widths.
type WidthError struct {
	Width int
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("unsupported word width %d (want 8, 16, 32 or 64)", e.Width)
}

// An ImageTooLargeError is returned when an image doesn't fit into the
// memory it's loaded into.
type ImageTooLargeError struct {
	Words    int
	Capacity int
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("firmware image is %d words, boot memory holds %d", e.Words, e.Capacity)
}

func checkWidth(width int) error {
	switch width {
	case 8, 16, 32, 64:
		return nil
	}
	return &WidthError{Width: width}
}

// Open loads a firmware image from file.
func Open(path string, width int, order hwio.ByteOrder) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("firmware: %w", err)
	}
	defer f.Close()

	img := &Image{Width: width, Order: order}
	if _, err := img.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("firmware %s: %w", path, err)
	}

	log.ModFw.InfoZ("firmware loaded").
		String("path", path).
		Int("bytes", img.Size).
		Int("words", len(img.Words)).
		Stringer("order", order).
		End()
	return img, nil
}

// ReadFrom implements io.ReaderFrom interface. Width and Order must be set
// beforehand.
func (img *Image) ReadFrom(r io.Reader) (int64, error) {
	if err := checkWidth(img.Width); err != nil {
		return 0, err
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return int64(len(buf)), err
	}
	img.Words = Decode(buf, img.Width, img.Order)
	img.Size = len(buf)
	return int64(len(buf)), nil
}

// Decode splits raw into words of width bits, each word being built from its
// bytes using the given byte order. The last word is zero-extended if raw
// length isn't a multiple of the word size. Width must be valid.
func Decode(raw []byte, width int, order hwio.ByteOrder) []uint64 {
	n := width / 8
	words := make([]uint64, 0, (len(raw)+n-1)/n)

	for off := 0; off < len(raw); off += n {
		chunk := raw[off:min(off+n, len(raw))]

		var w uint64
		for i, b := range chunk {
			switch order {
			case hwio.LittleEndian:
				w |= uint64(b) << (8 * i)
			case hwio.BigEndian:
				w |= uint64(b) << (8 * (len(chunk) - 1 - i))
			}
		}
		words = append(words, w)
	}
	return words
}

// Encode is the inverse of Decode for images made of whole words: it
// serializes words of width bits using the given byte order.
func Encode(words []uint64, width int, order hwio.ByteOrder) []byte {
	n := width / 8
	buf := make([]byte, 0, len(words)*n)
	for _, w := range words {
		for i := range n {
			switch order {
			case hwio.LittleEndian:
				buf = append(buf, byte(w>>(8*i)))
			case hwio.BigEndian:
				buf = append(buf, byte(w>>(8*(n-1-i))))
			}
		}
	}
	return buf
}

// Loadable is a memory which can be initialized with a firmware image.
type Loadable interface {
	// Capacity returns the memory size, in words.
	Capacity() int
	// Load writes words starting at offset 0.
	Load(words []uint64) error
}

// WriteTo writes the image into dst, starting at offset 0.
func (img *Image) WriteTo(dst Loadable) error {
	if len(img.Words) > dst.Capacity() {
		return &ImageTooLargeError{Words: len(img.Words), Capacity: dst.Capacity()}
	}
	return dst.Load(img.Words)
}
