package classfile

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Encode re-serializes a Class back into class file bytes. This is the
// decode-then-re-encode round trip the JIT path relies on (spec §9
// design notes): class metadata, fields, and class/field/method
// attributes are carried through unchanged; each method's Code attribute
// is rebuilt from its (possibly optimized) Instructions list with
// branch/switch offsets and the exception table recomputed against the
// new layout. Inside a rebuilt Code attribute, StackMapTable is dropped,
// LineNumberTable is regenerated, and other Code attributes are copied
// verbatim. Encode does not mutate c; any new
// constant-pool entries a fold result needs are added to a private copy
// of the pool.
func Encode(c *Class) []byte {
	pool := c.Pool // copy; growing it (AddInteger) must not affect the caller's Class

	methodBytes := make([][]byte, len(c.Methods))
	for i := range c.Methods {
		methodBytes[i] = prepareMethod(&pool, &c.Methods[i])
	}

	var buf bytes.Buffer
	putU4(&buf, classMagic)
	putU2(&buf, c.MinorVersion)
	putU2(&buf, c.MajorVersion)

	encodeConstantPool(&buf, &pool)

	putU2(&buf, c.AccessFlags)
	putU2(&buf, c.thisClassIndex)
	putU2(&buf, c.superClassIndex)

	putU2(&buf, uint16(len(c.interfaceIdx)))
	for _, idx := range c.interfaceIdx {
		putU2(&buf, idx)
	}

	putU2(&buf, uint16(len(c.Fields)))
	for _, f := range c.Fields {
		putU2(&buf, f.AccessFlags)
		putU2(&buf, f.NameIndex)
		putU2(&buf, f.DescIndex)
		putU2(&buf, uint16(len(f.Attributes)))
		for _, a := range f.Attributes {
			putU2(&buf, a.NameIndex)
			putU4(&buf, uint32(len(a.Info)))
			buf.Write(a.Info)
		}
	}

	putU2(&buf, uint16(len(c.Methods)))
	for _, mb := range methodBytes {
		buf.Write(mb)
	}

	putU2(&buf, uint16(len(c.attributes)))
	for _, a := range c.attributes {
		putU2(&buf, a.NameIndex)
		putU4(&buf, uint32(len(a.Info)))
		buf.Write(a.Info)
	}

	return buf.Bytes()
}

func putU1(b *bytes.Buffer, v byte)   { b.WriteByte(v) }
func putU2(b *bytes.Buffer, v uint16) { var tmp [2]byte; binary.BigEndian.PutUint16(tmp[:], v); b.Write(tmp[:]) }
func putU4(b *bytes.Buffer, v uint32) { var tmp [4]byte; binary.BigEndian.PutUint32(tmp[:], v); b.Write(tmp[:]) }
func putU8(b *bytes.Buffer, v uint64) { var tmp [8]byte; binary.BigEndian.PutUint64(tmp[:], v); b.Write(tmp[:]) }

func encodeConstantPool(buf *bytes.Buffer, pool *ConstantPool) {
	putU2(buf, uint16(pool.Len()))

	for i := 1; i < pool.Len(); i++ {
		entry := pool.entries[i]
		switch entry.Kind {
		case ConstUTF8:
			putU1(buf, tagUtf8)
			putU2(buf, uint16(len(entry.UTF8)))
			buf.WriteString(entry.UTF8)
		case ConstInteger:
			putU1(buf, tagInteger)
			putU4(buf, uint32(entry.Int32))
		case ConstFloat:
			putU1(buf, tagFloat)
			putU4(buf, math.Float32bits(entry.Flt32))
		case ConstLong:
			putU1(buf, tagLong)
			putU8(buf, uint64(entry.Int64))
			i++
		case ConstDouble:
			putU1(buf, tagDouble)
			putU8(buf, math.Float64bits(entry.Flt64))
			i++
		case ConstClass:
			putU1(buf, tagClass)
			putU2(buf, entry.Index1)
		case ConstString:
			putU1(buf, tagString)
			putU2(buf, entry.Index1)
		case ConstFieldref:
			putU1(buf, tagFieldref)
			putU2(buf, entry.Index1)
			putU2(buf, entry.Index2)
		case ConstMethodref:
			putU1(buf, tagMethodref)
			putU2(buf, entry.Index1)
			putU2(buf, entry.Index2)
		case ConstInterfaceMethodref:
			putU1(buf, tagInterfaceMethodref)
			putU2(buf, entry.Index1)
			putU2(buf, entry.Index2)
		case ConstNameAndType:
			putU1(buf, tagNameAndType)
			putU2(buf, entry.Index1)
			putU2(buf, entry.Index2)
		case ConstMethodHandle:
			putU1(buf, tagMethodHandle)
			putU1(buf, entry.Extra)
			putU2(buf, entry.Index1)
		case ConstMethodType:
			putU1(buf, tagMethodType)
			putU2(buf, entry.Index1)
		case ConstDynamic:
			putU1(buf, tagDynamic)
			putU2(buf, entry.Index1)
			putU2(buf, entry.Index2)
		case ConstInvokeDynamic:
			putU1(buf, tagInvokeDynamic)
			putU2(buf, entry.Index1)
			putU2(buf, entry.Index2)
		case ConstModule:
			putU1(buf, tagModule)
			putU2(buf, entry.Index1)
		case ConstPackage:
			putU1(buf, tagPackage)
			putU2(buf, entry.Index1)
		case constUnusedSlot:
			// emitted only as the partner of the preceding Long/Double.
		}
	}
}
