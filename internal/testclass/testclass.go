// Package testclass builds minimal, well-formed class-file byte streams
// for tests, the way the teacher's internal/testing/binaryencoding builds
// minimal Wasm binaries: a from-scratch encoder independent of the
// package under test, so a round-trip test doesn't validate the writer
// against itself.
package testclass

import (
	"bytes"
	"encoding/binary"
)

// Method describes one method_info entry to embed in a Build call.
type Method struct {
	Name        string
	Descriptor  string
	AccessFlags uint16
	MaxStack    uint16
	MaxLocals   uint16
	Code        []byte // raw Code-attribute instruction bytes, already assembled
	Exceptions  []byte // raw exception_table bytes (count + entries), or nil for "none"
}

type pool struct {
	entries []entry
}

type entry struct {
	tag  byte
	data []byte
}

func (p *pool) utf8(s string) uint16 {
	for i, e := range p.entries {
		if e.tag == 1 && string(e.data) == s {
			return uint16(i + 1)
		}
	}
	p.entries = append(p.entries, entry{tag: 1, data: []byte(s)})
	return uint16(len(p.entries))
}

func (p *pool) class(name string) uint16 {
	nameIdx := p.utf8(name)
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], nameIdx)
	p.entries = append(p.entries, entry{tag: 7, data: b[:]})
	return uint16(len(p.entries))
}

// Build assembles a complete class file for a class named name
// (extending java/lang/Object) with the given methods, each carrying a
// Code attribute built from its raw bytes.
func Build(name string, methods []Method) []byte {
	p := &pool{}
	thisIdx := p.class(name)
	superIdx := p.class("java/lang/Object")
	codeNameIdx := p.utf8("Code")

	type resolved struct {
		m        Method
		nameIdx  uint16
		descIdx  uint16
	}
	resolveds := make([]resolved, len(methods))
	for i, m := range methods {
		resolveds[i] = resolved{m: m, nameIdx: p.utf8(m.Name), descIdx: p.utf8(m.Descriptor)}
	}

	var buf bytes.Buffer
	putU2 := func(v uint16) { var b [2]byte; binary.BigEndian.PutUint16(b[:], v); buf.Write(b[:]) }
	putU4 := func(v uint32) { var b [4]byte; binary.BigEndian.PutUint32(b[:], v); buf.Write(b[:]) }

	putU4(0xCAFEBABE)
	putU2(0)  // minor
	putU2(52) // major (Java 8)

	putU2(uint16(len(p.entries) + 1))
	for _, e := range p.entries {
		buf.WriteByte(e.tag)
		if e.tag == 1 {
			putU2(uint16(len(e.data)))
		}
		buf.Write(e.data)
	}

	putU2(0x0021) // ACC_PUBLIC | ACC_SUPER
	putU2(thisIdx)
	putU2(superIdx)

	putU2(0) // interfaces
	putU2(0) // fields

	putU2(uint16(len(resolveds)))
	for _, r := range resolveds {
		putU2(r.m.AccessFlags)
		putU2(r.nameIdx)
		putU2(r.descIdx)
		putU2(1) // one attribute: Code

		putU2(codeNameIdx)
		exceptions := r.m.Exceptions
		var codeAttr bytes.Buffer
		var tmp2 [2]byte
		binary.BigEndian.PutUint16(tmp2[:], r.m.MaxStack)
		codeAttr.Write(tmp2[:])
		binary.BigEndian.PutUint16(tmp2[:], r.m.MaxLocals)
		codeAttr.Write(tmp2[:])
		var tmp4 [4]byte
		binary.BigEndian.PutUint32(tmp4[:], uint32(len(r.m.Code)))
		codeAttr.Write(tmp4[:])
		codeAttr.Write(r.m.Code)
		if exceptions != nil {
			codeAttr.Write(exceptions)
		} else {
			codeAttr.Write([]byte{0, 0}) // exception_table_length = 0
		}
		codeAttr.Write([]byte{0, 0}) // attributes_count = 0

		putU4(uint32(codeAttr.Len()))
		buf.Write(codeAttr.Bytes())
	}

	putU2(0) // class attributes

	return buf.Bytes()
}

// PushIntsAndIreturn builds a Code-attribute byte stream that pushes
// each of consts (iconst/bipush/sipush chosen by magnitude) in order,
// then ireturns.
func PushIntsAndIreturn(consts ...int32) []byte {
	var code bytes.Buffer
	for _, v := range consts {
		code.Write(pushInt(v))
	}
	code.WriteByte(0xAC) // ireturn
	return code.Bytes()
}

// IaddChain builds a Code-attribute byte stream that pushes len(consts)
// integer constants and folds them pairwise with iadd, then ireturns.
func IaddChain(consts ...int32) []byte {
	var code bytes.Buffer
	code.Write(pushInt(consts[0]))
	for _, v := range consts[1:] {
		code.Write(pushInt(v))
		code.WriteByte(0x60) // iadd
	}
	code.WriteByte(0xAC) // ireturn
	return code.Bytes()
}

func pushInt(v int32) []byte {
	switch {
	case v >= -1 && v <= 5:
		return []byte{byte(0x03 + v)} // iconst_m1..iconst_5
	case v >= -128 && v <= 127:
		return []byte{0x10, byte(int8(v))} // bipush
	case v >= -32768 && v <= 32767:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(int16(v)))
		return []byte{0x11, b[0], b[1]} // sipush
	default:
		panic("testclass: value out of sipush range, use ldc directly in the test")
	}
}
