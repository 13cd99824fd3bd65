package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"unicode/utf16"
)

type reader struct {
	r   io.Reader
	err error
}

func (r *reader) readU1() uint8 {
	if r.err != nil {
		return 0
	}
	var buf [1]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return buf[0]
}

func (r *reader) readU2() uint16 {
	if r.err != nil {
		return 0
	}
	var buf [2]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint16(buf[:])
}

func (r *reader) readU4() uint32 {
	if r.err != nil {
		return 0
	}
	var buf [4]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

// readBytes reads exactly n bytes. The buffer grows with the data actually
// read, so a forged length cannot force a large allocation up front.
func (r *reader) readBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	var buf bytes.Buffer
	got, err := io.Copy(&buf, io.LimitReader(r.r, int64(n)))
	if err != nil {
		r.err = err
		return nil
	}
	if got != int64(n) {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	return buf.Bytes()
}

// fail converts the reader's error into one of the package's error kinds.
func (r *reader) fail(what string) error {
	if errors.Is(r.err, io.EOF) || errors.Is(r.err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading %s", ErrTruncatedInput, what)
	}
	return fmt.Errorf("read %s: %w", what, r.err)
}

func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(rd io.Reader) (*ClassFile, error) {
	r := &reader{r: rd}

	magic := r.readU4()
	if r.err != nil {
		return nil, r.fail("magic")
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: invalid magic number 0x%X", ErrMalformedContainer, magic)
	}

	cf := &ClassFile{
		MinorVersion: r.readU2(),
		MajorVersion: r.readU2(),
	}
	if r.err != nil {
		return nil, r.fail("version")
	}

	constantPoolCount := r.readU2()
	if r.err != nil {
		return nil, r.fail("constant pool count")
	}
	if constantPoolCount == 0 {
		return nil, fmt.Errorf("%w: constant pool count is zero", ErrMalformedContainer)
	}

	cf.ConstantPool = make(ConstantPool, constantPoolCount-1)
	for i := uint16(1); i < constantPoolCount; i++ {
		entry, wide, err := readConstantPoolEntry(r)
		if err != nil {
			return nil, fmt.Errorf("constant pool entry %d: %w", i, err)
		}
		cf.ConstantPool[i-1] = entry
		if wide {
			i++
			if i == constantPoolCount {
				return nil, fmt.Errorf("%w: %s constant at last pool slot", ErrMalformedContainer, entry.Tag())
			}
		}
	}

	cf.AccessFlags = AccessFlags(r.readU2())
	cf.ThisClass = r.readU2()
	cf.SuperClass = r.readU2()

	interfacesCount := r.readU2()
	if r.err != nil {
		return nil, r.fail("class info")
	}

	cf.Interfaces = make([]uint16, interfacesCount)
	for i := range cf.Interfaces {
		cf.Interfaces[i] = r.readU2()
	}
	if r.err != nil {
		return nil, r.fail("interfaces")
	}

	fieldsCount := r.readU2()
	if r.err != nil {
		return nil, r.fail("fields count")
	}

	cf.Fields = make([]FieldInfo, fieldsCount)
	for i := range cf.Fields {
		flags, name, desc, attrs, err := readMember(r, cf.ConstantPool)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		cf.Fields[i] = FieldInfo{AccessFlags: flags, NameIndex: name, DescriptorIndex: desc, Attributes: attrs}
	}

	methodsCount := r.readU2()
	if r.err != nil {
		return nil, r.fail("methods count")
	}

	cf.Methods = make([]MethodInfo, methodsCount)
	for i := range cf.Methods {
		flags, name, desc, attrs, err := readMember(r, cf.ConstantPool)
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		cf.Methods[i] = MethodInfo{AccessFlags: flags, NameIndex: name, DescriptorIndex: desc, Attributes: attrs}
	}

	attrs, err := readAttributes(r, cf.ConstantPool)
	if err != nil {
		return nil, fmt.Errorf("class attributes: %w", err)
	}
	cf.Attributes = attrs

	return cf, nil
}

// readConstantPoolEntry decodes one entry. wide reports whether the entry
// occupies two pool slots (Long and Double).
func readConstantPoolEntry(r *reader) (entry ConstantPoolEntry, wide bool, err error) {
	tag := ConstantTag(r.readU1())

	switch tag {
	case ConstantUtf8:
		length := r.readU2()
		data := r.readBytes(int(length))
		entry = &ConstantUtf8Info{Value: decodeModifiedUtf8(data)}
	case ConstantInteger:
		entry = &ConstantIntegerInfo{Value: int32(r.readU4())}
	case ConstantFloat:
		entry = &ConstantFloatInfo{Value: math.Float32frombits(r.readU4())}
	case ConstantLong:
		high := r.readU4()
		low := r.readU4()
		entry, wide = &ConstantLongInfo{Value: int64(uint64(high)<<32 | uint64(low))}, true
	case ConstantDouble:
		high := r.readU4()
		low := r.readU4()
		entry, wide = &ConstantDoubleInfo{Value: math.Float64frombits(uint64(high)<<32 | uint64(low))}, true
	case ConstantClass:
		entry = &ConstantClassInfo{NameIndex: r.readU2()}
	case ConstantString:
		entry = &ConstantStringInfo{StringIndex: r.readU2()}
	case ConstantFieldref:
		entry = &ConstantFieldrefInfo{ClassIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantMethodref:
		entry = &ConstantMethodrefInfo{ClassIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantInterfaceMethodref:
		entry = &ConstantInterfaceMethodrefInfo{ClassIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantNameAndType:
		entry = &ConstantNameAndTypeInfo{NameIndex: r.readU2(), DescriptorIndex: r.readU2()}
	case ConstantMethodHandle:
		entry = &ConstantMethodHandleInfo{ReferenceKind: MethodHandleKind(r.readU1()), ReferenceIndex: r.readU2()}
	case ConstantMethodType:
		entry = &ConstantMethodTypeInfo{DescriptorIndex: r.readU2()}
	case ConstantDynamic:
		entry = &ConstantDynamicInfo{BootstrapMethodAttrIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantInvokeDynamic:
		entry = &ConstantInvokeDynamicInfo{BootstrapMethodAttrIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantModule:
		entry = &ConstantModuleInfo{NameIndex: r.readU2()}
	case ConstantPackage:
		entry = &ConstantPackageInfo{NameIndex: r.readU2()}
	default:
		if r.err != nil {
			return nil, false, r.fail("constant tag")
		}
		return nil, false, fmt.Errorf("%w: unknown constant pool tag %d", ErrMalformedContainer, tag)
	}

	if r.err != nil {
		return nil, false, r.fail(tag.String() + " constant")
	}
	return entry, wide, nil
}

func readMember(r *reader, cp ConstantPool) (flags AccessFlags, name, desc uint16, attrs []AttributeInfo, err error) {
	flags = AccessFlags(r.readU2())
	name = r.readU2()
	desc = r.readU2()
	if r.err != nil {
		return 0, 0, 0, nil, r.fail("member header")
	}
	attrs, err = readAttributes(r, cp)
	return flags, name, desc, attrs, err
}

func readAttributes(r *reader, cp ConstantPool) ([]AttributeInfo, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, r.fail("attributes count")
	}

	attrs := make([]AttributeInfo, count)
	for i := range attrs {
		attrs[i].NameIndex = r.readU2()
		length := r.readU4()
		attrs[i].Info = r.readBytes(int(length))
		if r.err != nil {
			return nil, r.fail("attribute")
		}
		if err := decodeAttribute(&attrs[i], cp, false); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

// decodeModifiedUtf8 decodes the JVM's modified UTF-8: NUL is encoded as two
// bytes and supplementary characters as surrogate pairs of three bytes each.
func decodeModifiedUtf8(data []byte) string {
	units := make([]uint16, 0, len(data))
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b&0x80 == 0:
			units = append(units, uint16(b))
			i++
		case b&0xE0 == 0xC0 && i+1 < len(data):
			units = append(units, uint16(b&0x1F)<<6|uint16(data[i+1]&0x3F))
			i += 2
		case b&0xF0 == 0xE0 && i+2 < len(data):
			units = append(units, uint16(b&0x0F)<<12|uint16(data[i+1]&0x3F)<<6|uint16(data[i+2]&0x3F))
			i += 3
		default:
			units = append(units, uint16(b))
			i++
		}
	}
	return string(utf16.Decode(units))
}
