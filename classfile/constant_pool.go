package classfile

// ConstantPoolEntry is one decoded constant-pool slot. The set of
// implementations is closed: only the Constant*Info types of this package
// satisfy it.
type ConstantPoolEntry interface {
	Tag() ConstantTag
	constant()
}

type ConstantUtf8Info struct {
	Value string
}

type ConstantIntegerInfo struct {
	Value int32
}

type ConstantFloatInfo struct {
	Value float32
}

type ConstantLongInfo struct {
	Value int64
}

type ConstantDoubleInfo struct {
	Value float64
}

type ConstantClassInfo struct {
	NameIndex uint16
}

type ConstantStringInfo struct {
	StringIndex uint16
}

type ConstantFieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type ConstantMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type ConstantInterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type ConstantNameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

type ConstantMethodHandleInfo struct {
	ReferenceKind  MethodHandleKind
	ReferenceIndex uint16
}

type ConstantMethodTypeInfo struct {
	DescriptorIndex uint16
}

type ConstantDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

type ConstantInvokeDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

type ConstantModuleInfo struct {
	NameIndex uint16
}

type ConstantPackageInfo struct {
	NameIndex uint16
}

func (*ConstantUtf8Info) Tag() ConstantTag               { return ConstantUtf8 }
func (*ConstantIntegerInfo) Tag() ConstantTag            { return ConstantInteger }
func (*ConstantFloatInfo) Tag() ConstantTag              { return ConstantFloat }
func (*ConstantLongInfo) Tag() ConstantTag               { return ConstantLong }
func (*ConstantDoubleInfo) Tag() ConstantTag             { return ConstantDouble }
func (*ConstantClassInfo) Tag() ConstantTag              { return ConstantClass }
func (*ConstantStringInfo) Tag() ConstantTag             { return ConstantString }
func (*ConstantFieldrefInfo) Tag() ConstantTag           { return ConstantFieldref }
func (*ConstantMethodrefInfo) Tag() ConstantTag          { return ConstantMethodref }
func (*ConstantInterfaceMethodrefInfo) Tag() ConstantTag { return ConstantInterfaceMethodref }
func (*ConstantNameAndTypeInfo) Tag() ConstantTag        { return ConstantNameAndType }
func (*ConstantMethodHandleInfo) Tag() ConstantTag       { return ConstantMethodHandle }
func (*ConstantMethodTypeInfo) Tag() ConstantTag         { return ConstantMethodType }
func (*ConstantDynamicInfo) Tag() ConstantTag            { return ConstantDynamic }
func (*ConstantInvokeDynamicInfo) Tag() ConstantTag      { return ConstantInvokeDynamic }
func (*ConstantModuleInfo) Tag() ConstantTag             { return ConstantModule }
func (*ConstantPackageInfo) Tag() ConstantTag            { return ConstantPackage }

func (*ConstantUtf8Info) constant()               {}
func (*ConstantIntegerInfo) constant()            {}
func (*ConstantFloatInfo) constant()              {}
func (*ConstantLongInfo) constant()               {}
func (*ConstantDoubleInfo) constant()             {}
func (*ConstantClassInfo) constant()              {}
func (*ConstantStringInfo) constant()             {}
func (*ConstantFieldrefInfo) constant()           {}
func (*ConstantMethodrefInfo) constant()          {}
func (*ConstantInterfaceMethodrefInfo) constant() {}
func (*ConstantNameAndTypeInfo) constant()        {}
func (*ConstantMethodHandleInfo) constant()       {}
func (*ConstantMethodTypeInfo) constant()         {}
func (*ConstantDynamicInfo) constant()            {}
func (*ConstantInvokeDynamicInfo) constant()      {}
func (*ConstantModuleInfo) constant()             {}
func (*ConstantPackageInfo) constant()            {}

// ConstantPool holds the entries of a class file's constant pool. Constant
// pool indices are 1-based, so index i lives at cp[i-1]. The slot following
// a Long or Double entry is nil.
type ConstantPool []ConstantPoolEntry

// Count returns constant_pool_count as declared in the class file header:
// valid indices are 1 through Count()-1.
func (cp ConstantPool) Count() int {
	return len(cp) + 1
}

// Entry returns the entry at the given 1-based index, or nil if the index is
// out of range or names the unusable slot after a Long or Double.
func (cp ConstantPool) Entry(index uint16) ConstantPoolEntry {
	if index == 0 || int(index) > len(cp) {
		return nil
	}
	return cp[index-1]
}

func (cp ConstantPool) GetUtf8(index uint16) string {
	if entry, ok := cp.Entry(index).(*ConstantUtf8Info); ok {
		return entry.Value
	}
	return ""
}

func (cp ConstantPool) GetClassName(index uint16) string {
	if entry, ok := cp.Entry(index).(*ConstantClassInfo); ok {
		return cp.GetUtf8(entry.NameIndex)
	}
	return ""
}
