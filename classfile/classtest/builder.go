// Package classtest assembles class files in memory for tests. The builder
// interns Utf8 entries the way javac does, so a name used twice occupies one
// constant-pool slot.
package classtest

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/dhamidi/classxref/classfile"
)

type Builder struct {
	pool  bytes.Buffer
	count uint16 // next free constant-pool index
	utf8s map[string]uint16

	access     classfile.AccessFlags
	thisClass  uint16
	superClass uint16
	interfaces []uint16
	fields     []*Member
	methods    []*Member
	attrs      []attribute
}

// Member is a field or method under construction.
type Member struct {
	b      *Builder
	access classfile.AccessFlags
	name   uint16
	desc   uint16
	attrs  []attribute
}

// Local describes one LocalVariableTable row.
type Local struct {
	Name       string
	Descriptor string
	Slot       uint16
}

type attribute struct {
	name uint16
	info []byte
}

// New starts a public class with the given internal names. An empty super
// name leaves super_class zero, as for java/lang/Object.
func New(className, superName string) *Builder {
	b := &Builder{count: 1, utf8s: make(map[string]uint16)}
	b.access = classfile.AccPublic | classfile.AccSuper
	b.thisClass = b.Class(className)
	if superName != "" {
		b.superClass = b.Class(superName)
	}
	return b
}

func (b *Builder) Access(flags classfile.AccessFlags) *Builder {
	b.access = flags
	return b
}

func (b *Builder) Implements(names ...string) *Builder {
	for _, name := range names {
		b.interfaces = append(b.interfaces, b.Class(name))
	}
	return b
}

// SetSuper overrides super_class with a raw index.
func (b *Builder) SetSuper(index uint16) *Builder {
	b.superClass = index
	return b
}

func (b *Builder) SourceFile(name string) *Builder {
	b.attrs = append(b.attrs, attribute{
		name: b.Utf8(classfile.AttrSourceFile),
		info: u2(b.Utf8(name)),
	})
	return b
}

// ClassLocals attaches a class-level Code attribute carrying a
// LocalVariableTable.
func (b *Builder) ClassLocals(locals ...Local) *Builder {
	b.attrs = append(b.attrs, b.codeAttribute(locals))
	return b
}

func (b *Builder) Field(flags classfile.AccessFlags, name, desc string) *Member {
	return b.RawField(flags, b.Utf8(name), b.Utf8(desc))
}

func (b *Builder) RawField(flags classfile.AccessFlags, name, desc uint16) *Member {
	m := &Member{b: b, access: flags, name: name, desc: desc}
	b.fields = append(b.fields, m)
	return m
}

func (b *Builder) Method(flags classfile.AccessFlags, name, desc string) *Member {
	return b.RawMethod(flags, b.Utf8(name), b.Utf8(desc))
}

func (b *Builder) RawMethod(flags classfile.AccessFlags, name, desc uint16) *Member {
	m := &Member{b: b, access: flags, name: name, desc: desc}
	b.methods = append(b.methods, m)
	return m
}

func (m *Member) Throws(classNames ...string) *Member {
	info := u2(uint16(len(classNames)))
	for _, name := range classNames {
		info = append(info, u2(m.b.Class(name))...)
	}
	m.attrs = append(m.attrs, attribute{name: m.b.Utf8(classfile.AttrExceptions), info: info})
	return m
}

// Locals attaches a Code attribute with an empty body and the given
// LocalVariableTable.
func (m *Member) Locals(locals ...Local) *Member {
	m.attrs = append(m.attrs, m.b.codeAttribute(locals))
	return m
}

// Parameters attaches a MethodParameters attribute. An empty name is
// recorded as name_index zero.
func (m *Member) Parameters(names ...string) *Member {
	info := []byte{byte(len(names))}
	for _, name := range names {
		var idx uint16
		if name != "" {
			idx = m.b.Utf8(name)
		}
		info = append(info, u2(idx)...)
		info = append(info, 0, 0)
	}
	m.attrs = append(m.attrs, attribute{name: m.b.Utf8(classfile.AttrMethodParameters), info: info})
	return m
}

func (b *Builder) codeAttribute(locals []Local) attribute {
	var lvt []byte
	lvt = append(lvt, u2(uint16(len(locals)))...)
	for _, l := range locals {
		lvt = append(lvt, 0, 0, 0, 1)
		lvt = append(lvt, u2(b.Utf8(l.Name))...)
		lvt = append(lvt, u2(b.Utf8(l.Descriptor))...)
		lvt = append(lvt, u2(l.Slot)...)
	}

	var info []byte
	info = append(info, 0, 1, 0, 4) // max_stack, max_locals
	info = append(info, u4(1)...)
	info = append(info, 0xB1) // return
	info = append(info, 0, 0) // exception_table_length
	info = append(info, u2(1)...)
	info = append(info, u2(b.Utf8(classfile.AttrLocalVariableTable))...)
	info = append(info, u4(uint32(len(lvt)))...)
	info = append(info, lvt...)
	return attribute{name: b.Utf8(classfile.AttrCode), info: info}
}

// Utf8 interns s and returns its index.
func (b *Builder) Utf8(s string) uint16 {
	if idx, ok := b.utf8s[s]; ok {
		return idx
	}
	data := []byte(s)
	idx := b.add(classfile.ConstantUtf8, append(u2(uint16(len(data))), data...), false)
	b.utf8s[s] = idx
	return idx
}

func (b *Builder) Integer(v int32) uint16 {
	return b.add(classfile.ConstantInteger, u4(uint32(v)), false)
}

func (b *Builder) Float(v float32) uint16 {
	return b.add(classfile.ConstantFloat, u4(math.Float32bits(v)), false)
}

func (b *Builder) Long(v int64) uint16 {
	return b.add(classfile.ConstantLong, u8(uint64(v)), true)
}

func (b *Builder) Double(v float64) uint16 {
	return b.add(classfile.ConstantDouble, u8(math.Float64bits(v)), true)
}

func (b *Builder) String(s string) uint16 {
	return b.RawString(b.Utf8(s))
}

func (b *Builder) RawString(utf8 uint16) uint16 {
	return b.add(classfile.ConstantString, u2(utf8), false)
}

func (b *Builder) Class(internalName string) uint16 {
	return b.RawClass(b.Utf8(internalName))
}

func (b *Builder) RawClass(nameIndex uint16) uint16 {
	return b.add(classfile.ConstantClass, u2(nameIndex), false)
}

func (b *Builder) NameAndType(name, desc string) uint16 {
	return b.RawNameAndType(b.Utf8(name), b.Utf8(desc))
}

func (b *Builder) RawNameAndType(name, desc uint16) uint16 {
	return b.add(classfile.ConstantNameAndType, append(u2(name), u2(desc)...), false)
}

func (b *Builder) Fieldref(class, name, desc string) uint16 {
	return b.RawRef(classfile.ConstantFieldref, b.Class(class), b.NameAndType(name, desc))
}

func (b *Builder) Methodref(class, name, desc string) uint16 {
	return b.RawRef(classfile.ConstantMethodref, b.Class(class), b.NameAndType(name, desc))
}

func (b *Builder) InterfaceMethodref(class, name, desc string) uint16 {
	return b.RawRef(classfile.ConstantInterfaceMethodref, b.Class(class), b.NameAndType(name, desc))
}

func (b *Builder) RawRef(tag classfile.ConstantTag, class, nameAndType uint16) uint16 {
	return b.add(tag, append(u2(class), u2(nameAndType)...), false)
}

func (b *Builder) MethodType(desc string) uint16 {
	return b.add(classfile.ConstantMethodType, u2(b.Utf8(desc)), false)
}

func (b *Builder) MethodHandle(kind classfile.MethodHandleKind, ref uint16) uint16 {
	return b.add(classfile.ConstantMethodHandle, append([]byte{byte(kind)}, u2(ref)...), false)
}

func (b *Builder) InvokeDynamic(bootstrap uint16, name, desc string) uint16 {
	return b.add(classfile.ConstantInvokeDynamic, append(u2(bootstrap), u2(b.NameAndType(name, desc))...), false)
}

func (b *Builder) Dynamic(bootstrap uint16, name, desc string) uint16 {
	return b.add(classfile.ConstantDynamic, append(u2(bootstrap), u2(b.NameAndType(name, desc))...), false)
}

func (b *Builder) Module(name string) uint16 {
	return b.add(classfile.ConstantModule, u2(b.Utf8(name)), false)
}

func (b *Builder) Package(internalName string) uint16 {
	return b.add(classfile.ConstantPackage, u2(b.Utf8(internalName)), false)
}

// Count returns the constant_pool_count the class file will declare.
func (b *Builder) Count() int {
	return int(b.count)
}

func (b *Builder) add(tag classfile.ConstantTag, payload []byte, wide bool) uint16 {
	idx := b.count
	b.pool.WriteByte(byte(tag))
	b.pool.Write(payload)
	b.count++
	if wide {
		b.count++
	}
	return idx
}

// Bytes serializes the class file.
func (b *Builder) Bytes() []byte {
	var out bytes.Buffer
	out.Write(u4(classfile.Magic))
	out.Write(u2(0))
	out.Write(u2(52))
	out.Write(u2(b.count))
	out.Write(b.pool.Bytes())
	out.Write(u2(uint16(b.access)))
	out.Write(u2(b.thisClass))
	out.Write(u2(b.superClass))
	out.Write(u2(uint16(len(b.interfaces))))
	for _, idx := range b.interfaces {
		out.Write(u2(idx))
	}
	writeMembers(&out, b.fields)
	writeMembers(&out, b.methods)
	writeAttributes(&out, b.attrs)
	return out.Bytes()
}

// Parse serializes and decodes the class file, panicking on failure.
func (b *Builder) Parse() *classfile.ClassFile {
	cf, err := classfile.Parse(bytes.NewReader(b.Bytes()))
	if err != nil {
		panic(err)
	}
	return cf
}

func writeMembers(out *bytes.Buffer, members []*Member) {
	out.Write(u2(uint16(len(members))))
	for _, m := range members {
		out.Write(u2(uint16(m.access)))
		out.Write(u2(m.name))
		out.Write(u2(m.desc))
		writeAttributes(out, m.attrs)
	}
}

func writeAttributes(out *bytes.Buffer, attrs []attribute) {
	out.Write(u2(uint16(len(attrs))))
	for _, a := range attrs {
		out.Write(u2(a.name))
		out.Write(u4(uint32(len(a.info))))
		out.Write(a.info)
	}
}

func u2(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

func u4(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func u8(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}
