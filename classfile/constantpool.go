package classfile

import "fmt"

// Constant-pool tag values, per the class file format.
const (
	tagUtf8              = 1
	tagInteger           = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// ConstantKind identifies the decoded shape of one constant-pool entry.
type ConstantKind uint8

const (
	ConstUTF8 ConstantKind = iota
	ConstInteger
	ConstFloat
	ConstLong
	ConstDouble
	ConstClass
	ConstString
	ConstFieldref
	ConstMethodref
	ConstInterfaceMethodref
	ConstNameAndType
	ConstMethodHandle
	ConstMethodType
	ConstDynamic
	ConstInvokeDynamic
	ConstModule
	ConstPackage
	// constUnusedSlot marks the dead index that follows a Long or Double
	// entry, per the class file format's "takes two pool slots" rule.
	constUnusedSlot
)

// Constant is one decoded constant-pool entry. Only the fields relevant to
// Kind are meaningful; round-trip re-encoding rebuilds every entry from
// these decoded fields (see encodeConstantPool).
type Constant struct {
	Kind ConstantKind

	UTF8 string

	Int32 int32
	Int64 int64
	Flt32 float32
	Flt64 float64

	// Index1/Index2 hold the one or two constant-pool index operands that
	// every reference-shaped entry (Class, String, *ref, NameAndType,
	// MethodHandle, MethodType, Dynamic, InvokeDynamic) carries. Their
	// meaning depends on Kind; see readConstantPool.
	Index1 uint16
	Index2 uint16
	Extra  byte // MethodHandle's reference_kind
}

// ConstantPool is the decoded constant_pool table, 1-indexed as the class
// file format mandates (index 0 is never valid; the slot after a Long or
// Double is also never valid).
type ConstantPool struct {
	entries []Constant // entries[0] unused; entries[i] is pool index i
}

// Get returns the constant at index i, or an error wrapping
// ErrUnsupportedConstant if i is out of range or is a dead long/double
// slot.
func (p *ConstantPool) Get(i uint16) (Constant, error) {
	if int(i) <= 0 || int(i) >= len(p.entries) {
		return Constant{}, fmt.Errorf("constant pool index %d out of range: %w", i, ErrUnsupportedConstant)
	}
	c := p.entries[i]
	if c.Kind == constUnusedSlot {
		return Constant{}, fmt.Errorf("constant pool index %d is a dead long/double slot: %w", i, ErrUnsupportedConstant)
	}
	return c, nil
}

// Len returns one past the highest valid index (entries[0] included),
// matching the class file format's constant_pool_count field.
func (p *ConstantPool) Len() int { return len(p.entries) }

// UTF8At resolves a Utf8 constant, following Class/NameAndType indirection
// is the caller's job; this only dereferences a direct Utf8 index.
func (p *ConstantPool) UTF8At(i uint16) (string, error) {
	c, err := p.Get(i)
	if err != nil {
		return "", err
	}
	if c.Kind != ConstUTF8 {
		return "", fmt.Errorf("constant pool index %d is not Utf8: %w", i, ErrUnsupportedConstant)
	}
	return c.UTF8, nil
}

// ClassNameAt resolves a Class constant to its slash-form internal name.
func (p *ConstantPool) ClassNameAt(i uint16) (string, error) {
	c, err := p.Get(i)
	if err != nil {
		return "", err
	}
	if c.Kind != ConstClass {
		return "", fmt.Errorf("constant pool index %d is not Class: %w", i, ErrUnsupportedConstant)
	}
	return p.UTF8At(c.Index1)
}

// IntegerAt resolves an Integer constant's value.
func (p *ConstantPool) IntegerAt(i uint16) (int32, error) {
	c, err := p.Get(i)
	if err != nil {
		return 0, err
	}
	if c.Kind != ConstInteger {
		return 0, fmt.Errorf("constant pool index %d is not Integer: %w", i, ErrUnsupportedConstant)
	}
	return c.Int32, nil
}

// AddInteger appends a new Integer constant and returns its fresh index.
// Used by the Class Writer when re-encoding a constant-folding result that
// has no existing constant-pool entry.
func (p *ConstantPool) AddInteger(v int32) uint16 {
	p.entries = append(p.entries, Constant{Kind: ConstInteger, Int32: v})
	return uint16(len(p.entries) - 1)
}

// FindOrAddUTF8 returns the index of an existing Utf8 entry equal to s, or
// appends a new one. Used by the Class Writer for attribute name constants
// (e.g. "LineNumberTable", "Code") it synthesizes on re-encode.
func (p *ConstantPool) FindOrAddUTF8(s string) uint16 {
	for i, e := range p.entries {
		if e.Kind == ConstUTF8 && e.UTF8 == s {
			return uint16(i)
		}
	}
	p.entries = append(p.entries, Constant{Kind: ConstUTF8, UTF8: s})
	return uint16(len(p.entries) - 1)
}
