package hwio

import "fmt"

// ByteOrder is the order in which the bytes of a word are laid out in
// memory.
type ByteOrder uint8

//go:generate stringer -type=ByteOrder -linecomment

const (
	LittleEndian ByteOrder = iota // little
	BigEndian                     // big
)

// ParseByteOrder parses "little" or "big".
func ParseByteOrder(s string) (ByteOrder, error) {
	switch s {
	case "little", "le":
		return LittleEndian, nil
	case "big", "be":
		return BigEndian, nil
	}
	return 0, fmt.Errorf("invalid byte order %q", s)
}

func (bo ByteOrder) MarshalText() ([]byte, error) {
	return []byte(bo.String()), nil
}

func (bo *ByteOrder) UnmarshalText(text []byte) error {
	v, err := ParseByteOrder(string(text))
	if err != nil {
		return err
	}
	*bo = v
	return nil
}
