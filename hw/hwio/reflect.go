package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type regInfo struct {
	name   string
	offset uint32
	regPtr any
}

type regTag struct {
	offset    uint32
	hasOffset bool
	bank      int
	reset     uint32
	rwmask    uint32
	hasRWMask bool
	flags     RWFlags
	rcb, wcb  string
}

func parseRegTag(field string, tag string) (regTag, error) {
	var rt regTag
	for _, opt := range strings.Split(tag, ",") {
		key, val, hasval := strings.Cut(strings.TrimSpace(opt), "=")
		num := func() (uint32, error) {
			n, err := strconv.ParseUint(val, 0, 32)
			if err != nil {
				return 0, fmt.Errorf("field %s: invalid %s value %q: %w", field, key, val, err)
			}
			return uint32(n), nil
		}

		var err error
		switch key {
		case "":
		case "offset":
			rt.offset, err = num()
			rt.hasOffset = true
		case "bank":
			var n uint32
			n, err = num()
			rt.bank = int(n)
		case "reset":
			rt.reset, err = num()
		case "rwmask":
			rt.rwmask, err = num()
			rt.hasRWMask = true
		case "readonly":
			rt.flags |= ReadOnlyFlag
		case "writeonly":
			rt.flags |= WriteOnlyFlag
		case "rcb":
			rt.rcb = "Read" + strings.ToUpper(field)
			if hasval {
				rt.rcb = val
			}
		case "wcb":
			rt.wcb = "Write" + strings.ToUpper(field)
			if hasval {
				rt.wcb = val
			}
		default:
			return rt, fmt.Errorf("field %s: unknown hwio tag option %q", field, key)
		}
		if err != nil {
			return rt, err
		}
	}
	return rt, nil
}

// InitRegs initializes the registers of a register bank, that is a pointer
// to a structure with Reg32 fields. See RegBank for the supported tags.
func InitRegs(bank any) error {
	val := reflect.ValueOf(bank)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("register bank must be a pointer to struct, got %T", bank)
	}
	elem := val.Elem()
	typ := elem.Type()

	for i := range typ.NumField() {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		reg, ok := elem.Field(i).Addr().Interface().(*Reg32)
		if !ok {
			return fmt.Errorf("field %s: hwio tag on unsupported type %s", f.Name, f.Type)
		}
		rt, err := parseRegTag(f.Name, tag)
		if err != nil {
			return err
		}

		reg.Name = f.Name
		reg.Value = rt.reset
		reg.Flags = rt.flags
		if rt.hasRWMask {
			reg.RoMask = ^rt.rwmask
		}
		if rt.rcb != "" {
			m := val.MethodByName(rt.rcb)
			if !m.IsValid() {
				return fmt.Errorf("field %s: read callback %s not found", f.Name, rt.rcb)
			}
			cb, ok := m.Interface().(func(uint32) uint32)
			if !ok {
				return fmt.Errorf("field %s: read callback %s has wrong signature %s", f.Name, rt.rcb, m.Type())
			}
			reg.ReadCb = cb
		}
		if rt.wcb != "" {
			m := val.MethodByName(rt.wcb)
			if !m.IsValid() {
				return fmt.Errorf("field %s: write callback %s not found", f.Name, rt.wcb)
			}
			cb, ok := m.Interface().(func(uint32, uint32))
			if !ok {
				return fmt.Errorf("field %s: write callback %s has wrong signature %s", f.Name, rt.wcb, m.Type())
			}
			reg.WriteCb = cb
		}
	}
	return nil
}

func bankGetRegs(bank any, bankNum int) ([]regInfo, error) {
	val := reflect.ValueOf(bank)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("register bank must be a pointer to struct, got %T", bank)
	}
	elem := val.Elem()
	typ := elem.Type()

	var regs []regInfo
	for i := range typ.NumField() {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		rt, err := parseRegTag(f.Name, tag)
		if err != nil {
			return nil, err
		}
		if !rt.hasOffset || rt.bank != bankNum {
			continue
		}
		regs = append(regs, regInfo{
			name:   f.Name,
			offset: rt.offset,
			regPtr: elem.Field(i).Addr().Interface(),
		})
	}
	return regs, nil
}
