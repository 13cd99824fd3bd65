package classfile

import (
	"encoding/binary"
	"fmt"
)

const (
	AttrCode               = "Code"
	AttrSourceFile         = "SourceFile"
	AttrExceptions         = "Exceptions"
	AttrLocalVariableTable = "LocalVariableTable"
	AttrMethodParameters   = "MethodParameters"
)

// AttributeInfo is a raw attribute. Parsed holds the decoded form for the
// attribute kinds this package understands and is nil otherwise.
type AttributeInfo struct {
	NameIndex uint16
	Info      []byte
	Parsed    interface{}
}

type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []AttributeInfo
}

type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

type LocalVariableTableAttribute struct {
	LocalVariableTable []LocalVariableEntry
}

type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

type SourceFileAttribute struct {
	SourceFileIndex uint16
}

type ExceptionsAttribute struct {
	ExceptionIndexTable []uint16
}

type MethodParametersAttribute struct {
	Parameters []MethodParameter
}

type MethodParameter struct {
	NameIndex   uint16
	AccessFlags AccessFlags
}

func (a *AttributeInfo) AsCode() *CodeAttribute {
	code, _ := a.Parsed.(*CodeAttribute)
	return code
}

func (a *AttributeInfo) AsLocalVariableTable() *LocalVariableTableAttribute {
	lvt, _ := a.Parsed.(*LocalVariableTableAttribute)
	return lvt
}

func (a *AttributeInfo) AsSourceFile() *SourceFileAttribute {
	sf, _ := a.Parsed.(*SourceFileAttribute)
	return sf
}

func (a *AttributeInfo) AsExceptions() *ExceptionsAttribute {
	ex, _ := a.Parsed.(*ExceptionsAttribute)
	return ex
}

func (a *AttributeInfo) AsMethodParameters() *MethodParametersAttribute {
	mp, _ := a.Parsed.(*MethodParametersAttribute)
	return mp
}

// LocalVariables returns every LocalVariableTable nested in the Code
// attribute, in attribute order.
func (c *CodeAttribute) LocalVariables() [][]LocalVariableEntry {
	var tables [][]LocalVariableEntry
	for i := range c.Attributes {
		if lvt := c.Attributes[i].AsLocalVariableTable(); lvt != nil {
			tables = append(tables, lvt.LocalVariableTable)
		}
	}
	return tables
}

// decodeAttribute fills in attr.Parsed for the attribute kinds the
// analyzer consumes. Attributes nested inside Code are decoded with
// nested=true, which restricts decoding to the tables valid there.
func decodeAttribute(attr *AttributeInfo, cp ConstantPool, nested bool) error {
	var err error
	name := cp.GetUtf8(attr.NameIndex)
	if nested {
		if name == AttrLocalVariableTable {
			attr.Parsed, err = parseLocalVariableTableAttribute(attr.Info)
		}
	} else {
		switch name {
		case AttrCode:
			attr.Parsed, err = parseCodeAttribute(attr.Info, cp)
		case AttrSourceFile:
			attr.Parsed, err = parseU2Attribute(attr.Info, func(v uint16) interface{} {
				return &SourceFileAttribute{SourceFileIndex: v}
			})
		case AttrExceptions:
			attr.Parsed, err = parseExceptionsAttribute(attr.Info)
		case AttrMethodParameters:
			attr.Parsed, err = parseMethodParametersAttribute(attr.Info)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %s attribute: %v", ErrMalformedContainer, name, err)
	}
	return nil
}

func parseCodeAttribute(info []byte, cp ConstantPool) (*CodeAttribute, error) {
	if len(info) < 8 {
		return nil, errShort
	}

	code := &CodeAttribute{
		MaxStack:  binary.BigEndian.Uint16(info[0:2]),
		MaxLocals: binary.BigEndian.Uint16(info[2:4]),
	}

	codeLength := int(binary.BigEndian.Uint32(info[4:8]))
	if codeLength < 0 || len(info)-8 < codeLength {
		return nil, errShort
	}
	code.Code = info[8 : 8+codeLength]

	offset := 8 + codeLength
	if len(info) < offset+2 {
		return nil, errShort
	}
	exceptionTableLength := int(binary.BigEndian.Uint16(info[offset : offset+2]))
	offset += 2

	if len(info) < offset+exceptionTableLength*8 {
		return nil, errShort
	}
	code.ExceptionTable = make([]ExceptionTableEntry, exceptionTableLength)
	for i := range code.ExceptionTable {
		code.ExceptionTable[i] = ExceptionTableEntry{
			StartPC:   binary.BigEndian.Uint16(info[offset : offset+2]),
			EndPC:     binary.BigEndian.Uint16(info[offset+2 : offset+4]),
			HandlerPC: binary.BigEndian.Uint16(info[offset+4 : offset+6]),
			CatchType: binary.BigEndian.Uint16(info[offset+6 : offset+8]),
		}
		offset += 8
	}

	if len(info) < offset+2 {
		return nil, errShort
	}
	attributesCount := int(binary.BigEndian.Uint16(info[offset : offset+2]))
	offset += 2

	code.Attributes = make([]AttributeInfo, 0, attributesCount)
	for i := 0; i < attributesCount; i++ {
		if len(info) < offset+6 {
			return nil, errShort
		}
		nameIndex := binary.BigEndian.Uint16(info[offset : offset+2])
		attrLength := int(binary.BigEndian.Uint32(info[offset+2 : offset+6]))
		offset += 6

		if attrLength < 0 || len(info)-offset < attrLength {
			return nil, errShort
		}
		attr := AttributeInfo{
			NameIndex: nameIndex,
			Info:      info[offset : offset+attrLength],
		}
		offset += attrLength

		if err := decodeAttribute(&attr, cp, true); err != nil {
			return nil, err
		}
		code.Attributes = append(code.Attributes, attr)
	}

	if offset != len(info) {
		return nil, fmt.Errorf("%d trailing bytes", len(info)-offset)
	}
	return code, nil
}

func parseLocalVariableTableAttribute(info []byte) (*LocalVariableTableAttribute, error) {
	if len(info) < 2 {
		return nil, errShort
	}

	count := int(binary.BigEndian.Uint16(info[0:2]))
	if len(info) != 2+count*10 {
		return nil, errLength
	}

	lvt := &LocalVariableTableAttribute{
		LocalVariableTable: make([]LocalVariableEntry, count),
	}

	offset := 2
	for i := range lvt.LocalVariableTable {
		lvt.LocalVariableTable[i] = LocalVariableEntry{
			StartPC:         binary.BigEndian.Uint16(info[offset : offset+2]),
			Length:          binary.BigEndian.Uint16(info[offset+2 : offset+4]),
			NameIndex:       binary.BigEndian.Uint16(info[offset+4 : offset+6]),
			DescriptorIndex: binary.BigEndian.Uint16(info[offset+6 : offset+8]),
			Index:           binary.BigEndian.Uint16(info[offset+8 : offset+10]),
		}
		offset += 10
	}

	return lvt, nil
}

func parseU2Attribute(info []byte, build func(uint16) interface{}) (interface{}, error) {
	if len(info) != 2 {
		return nil, errLength
	}
	return build(binary.BigEndian.Uint16(info)), nil
}

func parseExceptionsAttribute(info []byte) (*ExceptionsAttribute, error) {
	if len(info) < 2 {
		return nil, errShort
	}
	count := int(binary.BigEndian.Uint16(info[0:2]))
	if len(info) != 2+count*2 {
		return nil, errLength
	}

	ex := &ExceptionsAttribute{
		ExceptionIndexTable: make([]uint16, count),
	}

	offset := 2
	for i := range ex.ExceptionIndexTable {
		ex.ExceptionIndexTable[i] = binary.BigEndian.Uint16(info[offset : offset+2])
		offset += 2
	}

	return ex, nil
}

func parseMethodParametersAttribute(info []byte) (*MethodParametersAttribute, error) {
	if len(info) < 1 {
		return nil, errShort
	}

	count := int(info[0])
	if len(info) != 1+count*4 {
		return nil, errLength
	}

	mp := &MethodParametersAttribute{
		Parameters: make([]MethodParameter, count),
	}

	offset := 1
	for i := range mp.Parameters {
		mp.Parameters[i] = MethodParameter{
			NameIndex:   binary.BigEndian.Uint16(info[offset : offset+2]),
			AccessFlags: AccessFlags(binary.BigEndian.Uint16(info[offset+2 : offset+4])),
		}
		offset += 4
	}

	return mp, nil
}
