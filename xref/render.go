package xref

import (
	"fmt"
	"strings"

	"github.com/dhamidi/classxref/classfile"
)

// UnknownSourceFile stands in for the source file name of classes compiled
// without a SourceFile attribute.
const UnknownSourceFile = "<Unknown>"

// Renderer produces the structural rendition of a class together with its
// definition and reference tokens.
type Renderer struct {
	Links Linker
}

// Render walks cf in a fixed order: source file, package, class header,
// class-level local variables, fields, methods. The returned VisitedSet
// marks every constant-pool index whose value the rendition surfaced.
func (r Renderer) Render(cf *classfile.ClassFile) (*Result, *VisitedSet, error) {
	s := &renderState{
		links:   r.Links,
		cf:      cf,
		cp:      cf.ConstantPool,
		visited: NewVisitedSet(cf.ConstantPool.Count()),
		res:     &Result{},
	}
	if err := s.render(); err != nil {
		return nil, nil, err
	}
	s.res.Text = s.w.String()
	return s.res, s.visited, nil
}

type renderState struct {
	links   Linker
	cf      *classfile.ClassFile
	cp      classfile.ConstantPool
	visited *VisitedSet
	w       strings.Builder
	res     *Result
}

func (s *renderState) render() error {
	src, err := s.sourceFile()
	if err != nil {
		return err
	}
	s.w.WriteString(s.links.Path(src))
	s.def(src)
	s.w.WriteByte('\n')

	thisName, err := s.className(s.cf.ThisClass)
	if err != nil {
		return fmt.Errorf("this_class: %w", err)
	}
	pkg, simple := splitClassName(CompactClassName(thisName, false))
	if pkg != "" {
		s.w.WriteString("package ")
		s.w.WriteString(s.links.Ref(pkg))
		s.def(pkg)
		s.w.WriteByte('\n')
	}

	s.modifiers(AccessString(s.cf.AccessFlags, TargetClass))
	s.w.WriteString(s.links.Def(simple))
	s.def(simple)

	if s.cf.SuperClass != 0 {
		super, err := s.className(s.cf.SuperClass)
		if err != nil {
			return fmt.Errorf("super_class: %w", err)
		}
		s.w.WriteString(" extends ")
		s.linkRef(CompactClassName(super, true))
	}

	for i, idx := range s.cf.Interfaces {
		name, err := s.className(idx)
		if err != nil {
			return fmt.Errorf("interface %d: %w", i, err)
		}
		if i == 0 {
			s.w.WriteString(" implements")
		}
		s.w.WriteByte(' ')
		s.linkRef(CompactClassName(name, true))
	}
	s.w.WriteString(" {\n")

	for i := range s.cf.Attributes {
		if code := s.cf.Attributes[i].AsCode(); code != nil {
			if err := s.locals(code); err != nil {
				return err
			}
		}
	}

	for i := range s.cf.Fields {
		if err := s.field(&s.cf.Fields[i]); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}

	for i := range s.cf.Methods {
		if err := s.method(&s.cf.Methods[i]); err != nil {
			return fmt.Errorf("method %d: %w", i, err)
		}
	}

	s.w.WriteString("}\n")
	return nil
}

func (s *renderState) sourceFile() (string, error) {
	attr := s.cf.GetAttribute(classfile.AttrSourceFile)
	if attr == nil {
		return UnknownSourceFile, nil
	}
	s.visited.Mark(attr.NameIndex)
	sf := attr.AsSourceFile()
	if sf == nil {
		return "", fmt.Errorf("%w: undecoded SourceFile attribute", ErrMalformedClassModel)
	}
	name, err := s.utf8(sf.SourceFileIndex)
	if err != nil {
		return "", fmt.Errorf("source file: %w", err)
	}
	return name, nil
}

func (s *renderState) field(f *classfile.FieldInfo) error {
	name, err := s.utf8(f.NameIndex)
	if err != nil {
		return err
	}
	desc, err := s.utf8(f.DescriptorIndex)
	if err != nil {
		return err
	}
	typ, err := SignatureToString(desc, true)
	if err != nil {
		return fmt.Errorf("%w: field %s: %v", ErrMalformedClassModel, name, err)
	}

	s.w.WriteByte('\t')
	s.modifiers(AccessString(f.AccessFlags, TargetField))
	s.w.WriteString(typ)
	s.w.WriteByte(' ')
	s.w.WriteString(s.links.Def(name))
	s.def(name)
	s.w.WriteByte('\n')
	return nil
}

func (s *renderState) method(m *classfile.MethodInfo) error {
	name, err := s.utf8(m.NameIndex)
	if err != nil {
		return err
	}
	desc, err := s.utf8(m.DescriptorIndex)
	if err != nil {
		return err
	}
	ret, types, err := MethodSignature(desc, true)
	if err != nil {
		return fmt.Errorf("%w: method %s: %v", ErrMalformedClassModel, name, err)
	}
	params, err := s.parameters(m, types)
	if err != nil {
		return fmt.Errorf("method %s: %w", name, err)
	}

	s.w.WriteByte('\t')
	s.modifiers(AccessString(m.AccessFlags, TargetMethod))
	s.w.WriteString(ret)
	s.w.WriteByte(' ')
	s.w.WriteString(s.links.Def(name))
	s.def(name)
	s.w.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			s.w.WriteString(", ")
		}
		s.w.WriteString(p.String())
		if p.Name != "" {
			s.ref(p.Type)
			s.def(p.Name)
		}
	}
	s.w.WriteByte(')')

	var codes []*classfile.CodeAttribute
	for i := range m.Attributes {
		attr := &m.Attributes[i]
		if ex := attr.AsExceptions(); ex != nil {
			for j, idx := range ex.ExceptionIndexTable {
				exName, err := s.className(idx)
				if err != nil {
					return fmt.Errorf("method %s: exception %d: %w", name, j, err)
				}
				if j == 0 {
					s.w.WriteString(" throws ")
				} else {
					s.w.WriteString(", ")
				}
				s.linkRef(CompactClassName(exName, true))
			}
		} else if code := attr.AsCode(); code != nil {
			codes = append(codes, code)
		}
	}
	s.w.WriteByte('\n')

	for _, code := range codes {
		if err := s.locals(code); err != nil {
			return fmt.Errorf("method %s: %w", name, err)
		}
	}
	return nil
}

// parameters pairs the descriptor's parameter types with the names recorded
// in a MethodParameters attribute. Names are used only when the attribute
// covers every parameter.
func (s *renderState) parameters(m *classfile.MethodInfo, types []string) ([]Param, error) {
	params := make([]Param, len(types))
	for i, t := range types {
		params[i].Type = t
	}

	attr := m.GetAttribute(s.cp, classfile.AttrMethodParameters)
	if attr == nil {
		return params, nil
	}
	s.visited.Mark(attr.NameIndex)
	mp := attr.AsMethodParameters()
	if mp == nil || len(mp.Parameters) != len(types) {
		return params, nil
	}
	for i, p := range mp.Parameters {
		if p.NameIndex == 0 {
			continue
		}
		name, err := s.utf8(p.NameIndex)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		params[i].Name = name
	}
	return params, nil
}

func (s *renderState) locals(code *classfile.CodeAttribute) error {
	for _, table := range code.LocalVariables() {
		for _, l := range table {
			if err := s.local(l); err != nil {
				return err
			}
		}
	}
	return nil
}

// local renders one LocalVariableTable row. The receiver "this" is marked
// but neither rendered nor tokenized.
func (s *renderState) local(l classfile.LocalVariableEntry) error {
	s.visited.Mark(l.Index)
	name, err := s.utf8(l.NameIndex)
	if err != nil {
		return fmt.Errorf("local variable: %w", err)
	}
	desc, err := s.utf8(l.DescriptorIndex)
	if err != nil {
		return fmt.Errorf("local variable %s: %w", name, err)
	}
	if name == "this" {
		return nil
	}
	typ, err := SignatureToString(desc, true)
	if err != nil {
		return fmt.Errorf("%w: local variable %s: %v", ErrMalformedClassModel, name, err)
	}

	s.w.WriteString("\t\t")
	s.w.WriteString(typ)
	s.w.WriteByte(' ')
	s.w.WriteString(s.links.Def(name))
	s.def(name)
	s.w.WriteByte('\n')
	return nil
}

// utf8 reads the Utf8 entry at index for the rendition and marks it.
func (s *renderState) utf8(index uint16) (string, error) {
	u, ok := s.cp.Entry(index).(*classfile.ConstantUtf8Info)
	if !ok {
		return "", fmt.Errorf("%w: #%d is not a Utf8 constant", ErrMalformedClassModel, index)
	}
	s.visited.Mark(index)
	return u.Value, nil
}

// className reads the Class entry at index and its name, marking both, and
// returns the internal name.
func (s *renderState) className(index uint16) (string, error) {
	c, ok := s.cp.Entry(index).(*classfile.ConstantClassInfo)
	if !ok {
		return "", fmt.Errorf("%w: #%d is not a Class constant", ErrMalformedClassModel, index)
	}
	s.visited.Mark(index)
	return s.utf8(c.NameIndex)
}

func (s *renderState) modifiers(access string) {
	if access != "" {
		s.w.WriteString(access)
		s.w.WriteByte(' ')
	}
}

func (s *renderState) linkRef(name string) {
	s.w.WriteString(s.links.Ref(name))
	s.ref(name)
}

// def records a definition. Every definition is also a reference.
func (s *renderState) def(v string) {
	s.res.Definitions = append(s.res.Definitions, v)
	s.res.References = append(s.res.References, v)
}

func (s *renderState) ref(v string) {
	s.res.References = append(s.res.References, v)
}

func splitClassName(fullName string) (pkg, simpleName string) {
	lastDot := strings.LastIndex(fullName, ".")
	if lastDot == -1 {
		return "", fullName
	}
	return fullName[:lastDot], fullName[lastDot+1:]
}
