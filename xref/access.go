package xref

import (
	"strings"

	"github.com/dhamidi/classxref/classfile"
)

// Target selects which modifier spellings apply to a set of access flags:
// several flag bits mean different things on classes, fields and methods.
type Target int

const (
	TargetClass Target = iota
	TargetField
	TargetMethod
)

type modifier struct {
	flag classfile.AccessFlags
	name string
}

var modifiers = map[Target][]modifier{
	TargetClass: {
		{classfile.AccPublic, "public"},
		{classfile.AccPrivate, "private"},
		{classfile.AccProtected, "protected"},
		{classfile.AccStatic, "static"},
		{classfile.AccFinal, "final"},
		{classfile.AccAbstract, "abstract"},
		{classfile.AccStrict, "strictfp"},
		{classfile.AccSynthetic, "synthetic"},
		{classfile.AccAnnotation, "annotation"},
		{classfile.AccEnum, "enum"},
	},
	TargetField: {
		{classfile.AccPublic, "public"},
		{classfile.AccPrivate, "private"},
		{classfile.AccProtected, "protected"},
		{classfile.AccStatic, "static"},
		{classfile.AccFinal, "final"},
		{classfile.AccVolatile, "volatile"},
		{classfile.AccTransient, "transient"},
		{classfile.AccSynthetic, "synthetic"},
		{classfile.AccEnum, "enum"},
	},
	TargetMethod: {
		{classfile.AccPublic, "public"},
		{classfile.AccPrivate, "private"},
		{classfile.AccProtected, "protected"},
		{classfile.AccStatic, "static"},
		{classfile.AccFinal, "final"},
		{classfile.AccSynchronized, "synchronized"},
		{classfile.AccNative, "native"},
		{classfile.AccAbstract, "abstract"},
		{classfile.AccStrict, "strictfp"},
		{classfile.AccSynthetic, "synthetic"},
	},
}

// AccessString spells flags as space-separated modifiers in flag-bit order.
// Bits with no source spelling for the target (ACC_SUPER, ACC_INTERFACE on
// classes; ACC_BRIDGE, ACC_VARARGS on methods) are omitted. The result is
// empty when no modifier applies.
func AccessString(flags classfile.AccessFlags, target Target) string {
	var parts []string
	for _, m := range modifiers[target] {
		if flags.Has(m.flag) {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(parts, " ")
}
