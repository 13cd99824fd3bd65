package classfile

type MethodInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func (m *MethodInfo) Name(cp ConstantPool) string {
	return cp.GetUtf8(m.NameIndex)
}

func (m *MethodInfo) Descriptor(cp ConstantPool) string {
	return cp.GetUtf8(m.DescriptorIndex)
}

func (m *MethodInfo) GetAttribute(cp ConstantPool, name string) *AttributeInfo {
	return findAttribute(m.Attributes, cp, name)
}

func (m *MethodInfo) GetCodeAttribute(cp ConstantPool) *CodeAttribute {
	attr := m.GetAttribute(cp, AttrCode)
	if attr == nil {
		return nil
	}
	return attr.AsCode()
}

func (m *MethodInfo) ParsedDescriptor(cp ConstantPool) (*MethodDescriptor, error) {
	return ParseMethodDescriptor(m.Descriptor(cp))
}
