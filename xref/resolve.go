package xref

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dhamidi/classxref/classfile"
)

// Resolver renders constant-pool entries as text and marks every index it
// reads in its VisitedSet. A Resolver is bound to one analysis.
type Resolver struct {
	pool    classfile.ConstantPool
	visited *VisitedSet
}

func NewResolver(pool classfile.ConstantPool, visited *VisitedSet) *Resolver {
	return &Resolver{pool: pool, visited: visited}
}

func (r *Resolver) Visited() *VisitedSet { return r.visited }

// Resolve returns the text of the entry at index. Composite entries are
// resolved through the entries they point to; every payload index must
// name an entry of the kind its consumer expects.
func (r *Resolver) Resolve(index uint16) (string, error) {
	entry, err := r.entry(index)
	if err != nil {
		return "", err
	}
	r.visited.Mark(index)

	switch e := entry.(type) {
	case *classfile.ConstantUtf8Info:
		return e.Value, nil
	case *classfile.ConstantIntegerInfo:
		return strconv.FormatInt(int64(e.Value), 10), nil
	case *classfile.ConstantLongInfo:
		return strconv.FormatInt(e.Value, 10), nil
	case *classfile.ConstantFloatInfo:
		return formatFloat(float64(e.Value), 32), nil
	case *classfile.ConstantDoubleInfo:
		return formatFloat(e.Value, 64), nil
	case *classfile.ConstantStringInfo:
		return r.utf8(e.StringIndex)
	case *classfile.ConstantClassInfo:
		return r.class(e.NameIndex)
	case *classfile.ConstantNameAndTypeInfo:
		return r.nameAndType(e)
	case *classfile.ConstantFieldrefInfo:
		return r.ref(e.ClassIndex, e.NameAndTypeIndex)
	case *classfile.ConstantMethodrefInfo:
		return r.ref(e.ClassIndex, e.NameAndTypeIndex)
	case *classfile.ConstantInterfaceMethodrefInfo:
		return r.ref(e.ClassIndex, e.NameAndTypeIndex)
	case *classfile.ConstantMethodTypeInfo:
		return r.methodType(e.DescriptorIndex)
	case *classfile.ConstantMethodHandleInfo:
		return r.methodHandle(e)
	case *classfile.ConstantDynamicInfo:
		return r.natAt(e.NameAndTypeIndex)
	case *classfile.ConstantInvokeDynamicInfo:
		return r.natAt(e.NameAndTypeIndex)
	case *classfile.ConstantModuleInfo:
		return r.utf8(e.NameIndex)
	case *classfile.ConstantPackageInfo:
		name, err := r.utf8(e.NameIndex)
		return classfile.InternalToSourceName(name), err
	default:
		return "", malformed(index, "unsupported %s constant", entry.Tag())
	}
}

func (r *Resolver) entry(index uint16) (classfile.ConstantPoolEntry, error) {
	if index == 0 || int(index) >= r.pool.Count() {
		return nil, malformed(index, "index out of range [1, %d)", r.pool.Count())
	}
	entry := r.pool.Entry(index)
	if entry == nil {
		return nil, malformed(index, "empty slot")
	}
	return entry, nil
}

// utf8 resolves index, which must hold a Utf8 entry, and marks it.
func (r *Resolver) utf8(index uint16) (string, error) {
	entry, err := r.entry(index)
	if err != nil {
		return "", err
	}
	u, ok := entry.(*classfile.ConstantUtf8Info)
	if !ok {
		return "", malformed(index, "want Utf8, found %s", entry.Tag())
	}
	r.visited.Mark(index)
	return u.Value, nil
}

func (r *Resolver) class(nameIndex uint16) (string, error) {
	name, err := r.utf8(nameIndex)
	if err != nil {
		return "", err
	}
	compact, err := classEntryName(name, false)
	if err != nil {
		return "", malformed(nameIndex, "class name %q: %v", name, err)
	}
	return compact, nil
}

func (r *Resolver) nameAndType(e *classfile.ConstantNameAndTypeInfo) (string, error) {
	name, err := r.utf8(e.NameIndex)
	if err != nil {
		return "", err
	}
	desc, err := r.utf8(e.DescriptorIndex)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(desc, "(") {
		ret, params, err := MethodSignature(desc, true)
		if err != nil {
			return "", malformed(e.DescriptorIndex, "%v", err)
		}
		return ret + " " + name + "(" + strings.Join(params, ", ") + ")", nil
	}
	typ, err := SignatureToString(desc, true)
	if err != nil {
		return "", malformed(e.DescriptorIndex, "%v", err)
	}
	return typ + " " + name, nil
}

// natAt resolves index as a NameAndType entry, marking it.
func (r *Resolver) natAt(index uint16) (string, error) {
	entry, err := r.entry(index)
	if err != nil {
		return "", err
	}
	nat, ok := entry.(*classfile.ConstantNameAndTypeInfo)
	if !ok {
		return "", malformed(index, "want NameAndType, found %s", entry.Tag())
	}
	r.visited.Mark(index)
	return r.nameAndType(nat)
}

func (r *Resolver) ref(classIndex, natIndex uint16) (string, error) {
	entry, err := r.entry(classIndex)
	if err != nil {
		return "", err
	}
	cls, ok := entry.(*classfile.ConstantClassInfo)
	if !ok {
		return "", malformed(classIndex, "want Class, found %s", entry.Tag())
	}
	r.visited.Mark(classIndex)
	className, err := r.class(cls.NameIndex)
	if err != nil {
		return "", err
	}

	nat, err := r.natAt(natIndex)
	if err != nil {
		return "", err
	}
	return className + " " + nat, nil
}

func (r *Resolver) methodType(descIndex uint16) (string, error) {
	desc, err := r.utf8(descIndex)
	if err != nil {
		return "", err
	}
	ret, params, err := MethodSignature(desc, true)
	if err != nil {
		return "", malformed(descIndex, "%v", err)
	}
	return "(" + strings.Join(params, ", ") + ") " + ret, nil
}

func (r *Resolver) methodHandle(e *classfile.ConstantMethodHandleInfo) (string, error) {
	entry, err := r.entry(e.ReferenceIndex)
	if err != nil {
		return "", err
	}
	switch entry.(type) {
	case *classfile.ConstantFieldrefInfo, *classfile.ConstantMethodrefInfo, *classfile.ConstantInterfaceMethodrefInfo:
	default:
		return "", malformed(e.ReferenceIndex, "want member reference, found %s", entry.Tag())
	}
	target, err := r.Resolve(e.ReferenceIndex)
	if err != nil {
		return "", err
	}
	return e.ReferenceKind.String() + " " + target, nil
}

// formatFloat spells f as Java's Float.toString and Double.toString do:
// plain decimals in [1e-3, 1e7), otherwise "d.dddE±n", always with at
// least one fractional digit.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	if abs := math.Abs(f); abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(f, 'f', -1, bitSize)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, bitSize), "e")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(n)
}

func malformed(index uint16, format string, args ...interface{}) error {
	return fmt.Errorf("%w: #%d: %s", ErrMalformedConstant, index, fmt.Sprintf(format, args...))
}
