package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

const classMagic uint32 = 0xCAFEBABE

// cursor is a fixed-width big-endian reader over a class file's bytes, the
// way the class file format itself is laid out (u1/u2/u4 fields, never
// LEB128 — unlike the teacher's Wasm binary format, which is why this
// package uses encoding/binary.BigEndian directly instead of a varint
// decoder).
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) u1() (byte, error) {
	if c.pos+1 > len(c.buf) {
		return 0, fmt.Errorf("truncated at offset %d: %w", c.pos, ErrMalformedClass)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) u2() (uint16, error) {
	if c.pos+2 > len(c.buf) {
		return 0, fmt.Errorf("truncated at offset %d: %w", c.pos, ErrMalformedClass)
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u4() (uint32, error) {
	if c.pos+4 > len(c.buf) {
		return 0, fmt.Errorf("truncated at offset %d: %w", c.pos, ErrMalformedClass)
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) u8() (uint64, error) {
	if c.pos+8 > len(c.buf) {
		return 0, fmt.Errorf("truncated at offset %d: %w", c.pos, ErrMalformedClass)
	}
	v := binary.BigEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *cursor) raw(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, fmt.Errorf("truncated at offset %d: %w", c.pos, ErrMalformedClass)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Decode parses a well-formed class file from data into a Class, per the
// Class Reader contract (spec §4.1). It decodes the constant pool deeply
// enough to resolve names and integer constants, field metadata only, and
// fully decodes every method's instruction stream — including wide,
// branch offsets, and tableswitch/lookupswitch — so positions stay valid
// for the optimizer even though most opcodes beyond the supported set are
// never structurally interpreted past classification.
func Decode(data []byte) (*Class, error) {
	c := &cursor{buf: data}

	magic, err := c.u4()
	if err != nil {
		return nil, err
	}
	if magic != classMagic {
		return nil, fmt.Errorf("bad magic %#08x: %w", magic, ErrMalformedClass)
	}

	minor, err := c.u2()
	if err != nil {
		return nil, err
	}
	major, err := c.u2()
	if err != nil {
		return nil, err
	}

	pool, err := readConstantPool(c)
	if err != nil {
		return nil, err
	}

	class := &Class{MinorVersion: minor, MajorVersion: major, Pool: *pool}

	class.AccessFlags, err = c.u2()
	if err != nil {
		return nil, err
	}
	class.thisClassIndex, err = c.u2()
	if err != nil {
		return nil, err
	}
	class.superClassIndex, err = c.u2()
	if err != nil {
		return nil, err
	}

	class.Name, err = class.Pool.ClassNameAt(class.thisClassIndex)
	if err != nil {
		return nil, err
	}
	if class.superClassIndex != 0 {
		class.SuperName, err = class.Pool.ClassNameAt(class.superClassIndex)
		if err != nil {
			return nil, err
		}
	}

	ifaceCount, err := c.u2()
	if err != nil {
		return nil, err
	}
	class.interfaceIdx = make([]uint16, ifaceCount)
	class.Interfaces = make([]string, ifaceCount)
	for i := range class.interfaceIdx {
		idx, err := c.u2()
		if err != nil {
			return nil, err
		}
		class.interfaceIdx[i] = idx
		class.Interfaces[i], err = class.Pool.ClassNameAt(idx)
		if err != nil {
			return nil, err
		}
	}

	fieldCount, err := c.u2()
	if err != nil {
		return nil, err
	}
	class.Fields = make([]Field, fieldCount)
	for i := range class.Fields {
		f, err := readField(c)
		if err != nil {
			return nil, err
		}
		class.Fields[i] = f
	}

	methodCount, err := c.u2()
	if err != nil {
		return nil, err
	}
	class.Methods = make([]Method, methodCount)
	for i := range class.Methods {
		m, err := readMethod(c, &class.Pool)
		if err != nil {
			return nil, err
		}
		class.Methods[i] = m
	}

	attrCount, err := c.u2()
	if err != nil {
		return nil, err
	}
	class.attributes, err = readAttributes(c, attrCount)
	if err != nil {
		return nil, err
	}

	return class, nil
}

func readConstantPool(c *cursor) (*ConstantPool, error) {
	count, err := c.u2()
	if err != nil {
		return nil, err
	}
	pool := &ConstantPool{entries: make([]Constant, count)}

	for i := 1; i < int(count); i++ {
		tag, err := c.u1()
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagUtf8:
			length, err := c.u2()
			if err != nil {
				return nil, err
			}
			b, err := c.raw(int(length))
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstUTF8, UTF8: string(b)}
		case tagInteger:
			v, err := c.u4()
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstInteger, Int32: int32(v)}
		case tagFloat:
			v, err := c.u4()
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstFloat, Flt32: float32FromBits(v)}
		case tagLong:
			v, err := c.u8()
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstLong, Int64: int64(v)}
			i++ // occupies two pool slots
			if i < int(count) {
				pool.entries[i] = Constant{Kind: constUnusedSlot}
			}
		case tagDouble:
			v, err := c.u8()
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstDouble, Flt64: float64FromBits(v)}
			i++
			if i < int(count) {
				pool.entries[i] = Constant{Kind: constUnusedSlot}
			}
		case tagClass:
			idx, err := c.u2()
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstClass, Index1: idx}
		case tagString:
			idx, err := c.u2()
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstString, Index1: idx}
		case tagFieldref, tagMethodref, tagInterfaceMethodref:
			classIdx, err := c.u2()
			if err != nil {
				return nil, err
			}
			natIdx, err := c.u2()
			if err != nil {
				return nil, err
			}
			kind := ConstFieldref
			if tag == tagMethodref {
				kind = ConstMethodref
			} else if tag == tagInterfaceMethodref {
				kind = ConstInterfaceMethodref
			}
			pool.entries[i] = Constant{Kind: kind, Index1: classIdx, Index2: natIdx}
		case tagNameAndType:
			nameIdx, err := c.u2()
			if err != nil {
				return nil, err
			}
			descIdx, err := c.u2()
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstNameAndType, Index1: nameIdx, Index2: descIdx}
		case tagMethodHandle:
			refKind, err := c.u1()
			if err != nil {
				return nil, err
			}
			refIdx, err := c.u2()
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstMethodHandle, Extra: refKind, Index1: refIdx}
		case tagMethodType:
			descIdx, err := c.u2()
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstMethodType, Index1: descIdx}
		case tagDynamic, tagInvokeDynamic:
			bootstrapIdx, err := c.u2()
			if err != nil {
				return nil, err
			}
			natIdx, err := c.u2()
			if err != nil {
				return nil, err
			}
			kind := ConstDynamic
			if tag == tagInvokeDynamic {
				kind = ConstInvokeDynamic
			}
			pool.entries[i] = Constant{Kind: kind, Index1: bootstrapIdx, Index2: natIdx}
		case tagModule:
			idx, err := c.u2()
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstModule, Index1: idx}
		case tagPackage:
			idx, err := c.u2()
			if err != nil {
				return nil, err
			}
			pool.entries[i] = Constant{Kind: ConstPackage, Index1: idx}
		default:
			return nil, fmt.Errorf("unknown constant pool tag %d at entry %d: %w", tag, i, ErrUnsupportedConstant)
		}
	}

	return pool, nil
}

func readAttributes(c *cursor, count uint16) ([]Attribute, error) {
	attrs := make([]Attribute, count)
	for i := range attrs {
		nameIdx, err := c.u2()
		if err != nil {
			return nil, err
		}
		length, err := c.u4()
		if err != nil {
			return nil, err
		}
		info, err := c.raw(int(length))
		if err != nil {
			return nil, err
		}
		attrs[i] = Attribute{NameIndex: nameIdx, Info: append([]byte(nil), info...)}
	}
	return attrs, nil
}

func readField(c *cursor) (Field, error) {
	var f Field
	var err error
	if f.AccessFlags, err = c.u2(); err != nil {
		return f, err
	}
	if f.NameIndex, err = c.u2(); err != nil {
		return f, err
	}
	if f.DescIndex, err = c.u2(); err != nil {
		return f, err
	}
	count, err := c.u2()
	if err != nil {
		return f, err
	}
	f.Attributes, err = readAttributes(c, count)
	return f, err
}

func readMethod(c *cursor, pool *ConstantPool) (Method, error) {
	var m Method
	var err error
	if m.AccessFlags, err = c.u2(); err != nil {
		return m, err
	}
	if m.NameIndex, err = c.u2(); err != nil {
		return m, err
	}
	if m.DescIndex, err = c.u2(); err != nil {
		return m, err
	}
	if m.Name, err = pool.UTF8At(m.NameIndex); err != nil {
		return m, err
	}
	if m.Descriptor, err = pool.UTF8At(m.DescIndex); err != nil {
		return m, err
	}

	count, err := c.u2()
	if err != nil {
		return m, err
	}
	for i := uint16(0); i < count; i++ {
		nameIdx, err := c.u2()
		if err != nil {
			return m, err
		}
		length, err := c.u4()
		if err != nil {
			return m, err
		}
		body, err := c.raw(int(length))
		if err != nil {
			return m, err
		}
		attrName, err := pool.UTF8At(nameIdx)
		if err != nil {
			return m, err
		}
		if attrName == "Code" {
			if err := decodeCode(&m, pool, body); err != nil {
				return m, err
			}
			m.hasCode = true
		} else {
			m.Attributes = append(m.Attributes, Attribute{NameIndex: nameIdx, Info: append([]byte(nil), body...)})
		}
	}
	return m, nil
}

func float32FromBits(b uint32) float32 { return math.Float32frombits(b) }

func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }
