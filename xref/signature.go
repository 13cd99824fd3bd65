package xref

import (
	"strings"

	"github.com/dhamidi/classxref/classfile"
)

const javaLang = "java.lang."

// CompactClassName turns an internal class name such as java/util/Map$Entry
// into dotted form. With short set, members of java.lang itself (but not of
// its subpackages) lose the package prefix.
func CompactClassName(name string, short bool) string {
	name = classfile.InternalToSourceName(name)
	if short && strings.HasPrefix(name, javaLang) && !strings.Contains(name[len(javaLang):], ".") {
		return name[len(javaLang):]
	}
	return name
}

// TypeName spells a decoded field type as Java source would.
func TypeName(ft *classfile.FieldType, short bool) string {
	var sb strings.Builder
	if ft.BaseType != "" {
		sb.WriteString(ft.BaseType)
	} else {
		sb.WriteString(CompactClassName(ft.ClassName, short))
	}
	for i := 0; i < ft.ArrayDepth; i++ {
		sb.WriteString("[]")
	}
	return sb.String()
}

// SignatureToString decodes a field descriptor, or the return descriptor
// "V", into a Java type.
func SignatureToString(desc string, short bool) (string, error) {
	if desc == "V" {
		return "void", nil
	}
	ft, err := classfile.ParseFieldDescriptor(desc)
	if err != nil {
		return "", err
	}
	return TypeName(ft, short), nil
}

// MethodSignature decodes a method descriptor into its return type and
// parameter types.
func MethodSignature(desc string, short bool) (ret string, params []string, err error) {
	md, err := classfile.ParseMethodDescriptor(desc)
	if err != nil {
		return "", nil, err
	}
	ret = "void"
	if md.ReturnType != nil {
		ret = TypeName(md.ReturnType, short)
	}
	params = make([]string, len(md.Parameters))
	for i := range md.Parameters {
		params[i] = TypeName(&md.Parameters[i], short)
	}
	return ret, params, nil
}

// classEntryName spells the name held by a Class constant. Array classes
// are stored as descriptors ("[Ljava/lang/String;") and decode to "T[]".
func classEntryName(name string, short bool) (string, error) {
	if strings.HasPrefix(name, "[") {
		return SignatureToString(name, short)
	}
	return CompactClassName(name, short), nil
}

// Param is one rendered method parameter. Name is empty when the class
// file does not record it.
type Param struct {
	Type string
	Name string
}

func (p Param) String() string {
	if p.Name == "" {
		return p.Type
	}
	return p.Type + " " + p.Name
}
