package xref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/classxref/classfile"
	"github.com/dhamidi/classxref/classfile/classtest"
)

const testPrefix = "/s?"

var testLinks = Linker{Prefix: testPrefix}

func render(t *testing.T, b *classtest.Builder) (*Result, *VisitedSet) {
	t.Helper()
	res, visited, err := Renderer{Links: testLinks}.Render(b.Parse())
	require.NoError(t, err)
	return res, visited
}

func TestRenderMinimalClass(t *testing.T) {
	b := classtest.New("p/C", "java/lang/Object").SourceFile("C.java")
	res, _ := render(t, b)

	want := `<a href="/s?path=C.java">C.java</a>` + "\n" +
		`package <a href="/s?defs=p">p</a>` + "\n" +
		`public <a class="d" name="C" href="/s?defs=C">C</a> extends <a href="/s?defs=Object">Object</a> {` + "\n" +
		"}\n"
	assert.Equal(t, want, res.Text)
	assert.Equal(t, []string{"C.java", "p", "C"}, res.Definitions)
	assert.Equal(t, []string{"C.java", "p", "C", "Object"}, res.References)
}

func TestRenderField(t *testing.T) {
	b := classtest.New("p/C", "java/lang/Object").SourceFile("C.java")
	b.Field(0, "x", "I")
	b.Field(classfile.AccPrivate|classfile.AccStatic|classfile.AccFinal, "names", "[Ljava/lang/String;")
	res, _ := render(t, b)

	assert.Contains(t, res.Text, "\tint "+testLinks.Def("x")+"\n")
	assert.Contains(t, res.Text, "\tprivate static final String[] "+testLinks.Def("names")+"\n")
	assert.Equal(t, []string{"C.java", "p", "C", "x", "names"}, res.Definitions)
	assert.Equal(t, []string{"C.java", "p", "C", "Object", "x", "names"}, res.References)
}

func TestRenderHeader(t *testing.T) {
	t.Run("default package and missing source file", func(t *testing.T) {
		res, _ := render(t, classtest.New("Main", "java/lang/Object"))
		assert.Equal(t, []string{UnknownSourceFile, "Main"}, res.Definitions)
		assert.NotContains(t, res.Text, "package ")
		assert.Contains(t, res.Text, testLinks.Path(UnknownSourceFile))
	})

	t.Run("interfaces", func(t *testing.T) {
		b := classtest.New("p/q/Task", "p/Base").Implements("java/lang/Runnable", "java/io/Serializable")
		b.Access(classfile.AccPublic | classfile.AccFinal | classfile.AccSuper)
		res, _ := render(t, b)
		assert.Contains(t, res.Text, "package "+testLinks.Ref("p.q")+"\n")
		assert.Contains(t, res.Text, "public final "+testLinks.Def("Task")+
			" extends "+testLinks.Ref("p.Base")+
			" implements "+testLinks.Ref("Runnable")+" "+testLinks.Ref("java.io.Serializable")+" {\n")
		assert.Equal(t, []string{UnknownSourceFile, "p.q", "Task", "p.Base", "Runnable", "java.io.Serializable"}, res.References)
	})

	t.Run("no superclass", func(t *testing.T) {
		res, _ := render(t, classtest.New("java/lang/Object", ""))
		assert.Contains(t, res.Text, testLinks.Def("Object")+" {\n")
		assert.NotContains(t, res.Text, " extends ")
	})
}

func TestRenderMethod(t *testing.T) {
	b := classtest.New("p/C", "java/lang/Object").SourceFile("C.java")
	b.Method(classfile.AccPublic, "<init>", "()V").
		Locals(classtest.Local{Name: "this", Descriptor: "Lp/C;", Slot: 0})
	b.Method(classfile.AccPrivate|classfile.AccStatic, "helper", "(IJ)Ljava/lang/String;").
		Parameters("count", "").
		Throws("java/io/IOException", "java/lang/InterruptedException")
	b.Method(classfile.AccPublic|classfile.AccVarargs|classfile.AccBridge, "run", "([Ljava/lang/Object;)V").
		Locals(
			classtest.Local{Name: "this", Descriptor: "Lp/C;", Slot: 0},
			classtest.Local{Name: "args", Descriptor: "[Ljava/lang/Object;", Slot: 1},
			classtest.Local{Name: "total", Descriptor: "D", Slot: 2},
		)
	res, _ := render(t, b)

	assert.Contains(t, res.Text, "\tpublic void "+testLinks.Def("<init>")+"()\n")
	assert.Contains(t, res.Text, `<a class="d" name="&lt;init&gt;" href="/s?defs=&lt;init&gt;">&lt;init&gt;</a>`)
	assert.Contains(t, res.Text, "\tprivate static String "+testLinks.Def("helper")+"(int count, long)"+
		" throws "+testLinks.Ref("java.io.IOException")+", "+testLinks.Ref("InterruptedException")+"\n")
	assert.Contains(t, res.Text, "\tpublic void "+testLinks.Def("run")+"(Object[])\n"+
		"\t\tObject[] "+testLinks.Def("args")+"\n"+
		"\t\tdouble "+testLinks.Def("total")+"\n")

	assert.Equal(t, []string{"C.java", "p", "C", "<init>", "helper", "count", "run", "args", "total"}, res.Definitions)
	assert.Equal(t, []string{
		"C.java", "p", "C", "Object",
		"<init>",
		"helper", "int", "count", "java.io.IOException", "InterruptedException",
		"run", "args", "total",
	}, res.References)
}

func TestRenderReceiverIsMarkedButHidden(t *testing.T) {
	b := classtest.New("p/C", "java/lang/Object")
	thisName := b.Utf8("this")
	thisDesc := b.Utf8("Lp/C;")
	slot := b.Integer(99)
	b.Method(0, "m", "()V").Locals(classtest.Local{Name: "this", Descriptor: "Lp/C;", Slot: slot})
	res, visited := render(t, b)

	assert.NotContains(t, res.Definitions, "this")
	assert.NotContains(t, res.References, "this")
	assert.NotContains(t, res.Text, "this")
	assert.True(t, visited.Visited(thisName))
	assert.True(t, visited.Visited(thisDesc))
	assert.True(t, visited.Visited(slot), "slot index is marked")
}

func TestRenderClassLevelLocals(t *testing.T) {
	b := classtest.New("p/C", "java/lang/Object").
		ClassLocals(classtest.Local{Name: "shared", Descriptor: "Ljava/util/List;", Slot: 0})
	b.Field(0, "f", "Z")
	res, _ := render(t, b)

	assert.Contains(t, res.Text, " {\n\t\tjava.util.List "+testLinks.Def("shared")+"\n\tboolean ")
	assert.Equal(t, []string{UnknownSourceFile, "p", "C", "shared", "f"}, res.Definitions)
}

func TestRenderMarksConsumedIndices(t *testing.T) {
	b := classtest.New("p/C", "java/lang/Object").SourceFile("C.java").Implements("java/lang/Runnable")
	b.Field(0, "x", "I")
	b.Method(0, "m", "(I)V").Parameters("n").Throws("java/lang/Exception")
	_, visited := render(t, b)

	cf := b.Parse()
	for _, want := range []string{"p/C", "java/lang/Object", "java/lang/Runnable", "SourceFile", "C.java",
		"x", "I", "m", "(I)V", "n", "java/lang/Exception", "MethodParameters"} {
		found := false
		for i := 1; i < cf.ConstantPool.Count(); i++ {
			if cf.ConstantPool.GetUtf8(uint16(i)) == want {
				found = true
				assert.True(t, visited.Visited(uint16(i)), "%q (#%d) not marked", want, i)
			}
		}
		assert.True(t, found, "%q not in pool", want)
	}
	assert.True(t, visited.Visited(cf.ThisClass))
	assert.True(t, visited.Visited(cf.SuperClass))
	assert.True(t, visited.Visited(cf.Interfaces[0]))
}

func TestRenderMalformedClassModel(t *testing.T) {
	tests := []struct {
		name  string
		build func() *classtest.Builder
	}{
		{"field descriptor is not utf8", func() *classtest.Builder {
			b := classtest.New("p/C", "java/lang/Object")
			b.RawField(0, b.Utf8("x"), b.Integer(1))
			return b
		}},
		{"field descriptor does not decode", func() *classtest.Builder {
			b := classtest.New("p/C", "java/lang/Object")
			b.Field(0, "x", "Q")
			return b
		}},
		{"method name out of range", func() *classtest.Builder {
			b := classtest.New("p/C", "java/lang/Object")
			b.RawMethod(0, 999, b.Utf8("()V"))
			return b
		}},
		{"method descriptor is a field descriptor", func() *classtest.Builder {
			b := classtest.New("p/C", "java/lang/Object")
			b.Method(0, "m", "I")
			return b
		}},
		{"super_class is not a class", func() *classtest.Builder {
			b := classtest.New("p/C", "java/lang/Object")
			return b.SetSuper(b.Utf8("java/lang/Object"))
		}},
		{"local descriptor does not decode", func() *classtest.Builder {
			b := classtest.New("p/C", "java/lang/Object")
			b.Method(0, "m", "()V").Locals(classtest.Local{Name: "v", Descriptor: "Lbroken", Slot: 1})
			return b
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, visited, err := Renderer{Links: testLinks}.Render(tt.build().Parse())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedClassModel)
			assert.Equal(t, KindMalformedClassModel, KindOf(err))
			assert.Nil(t, res)
			assert.Nil(t, visited)
		})
	}
}

func TestAccessString(t *testing.T) {
	tests := []struct {
		flags  classfile.AccessFlags
		target Target
		want   string
	}{
		{classfile.AccPublic | classfile.AccSuper, TargetClass, "public"},
		{classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract, TargetClass, "public abstract"},
		{0, TargetClass, ""},
		{classfile.AccPrivate | classfile.AccVolatile | classfile.AccTransient, TargetField, "private volatile transient"},
		{classfile.AccPublic | classfile.AccSynchronized | classfile.AccBridge | classfile.AccVarargs, TargetMethod, "public synchronized"},
		{classfile.AccProtected | classfile.AccStatic | classfile.AccNative, TargetMethod, "protected static native"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, AccessString(tt.flags, tt.target))
		})
	}
}

func TestSignatureToString(t *testing.T) {
	tests := []struct {
		desc  string
		short bool
		want  string
	}{
		{"I", true, "int"},
		{"V", true, "void"},
		{"Ljava/lang/String;", true, "String"},
		{"Ljava/lang/String;", false, "java.lang.String"},
		{"Ljava/lang/reflect/Method;", true, "java.lang.reflect.Method"},
		{"[[Ljava/util/Map$Entry;", true, "java.util.Map$Entry[][]"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := SignatureToString(tt.desc, tt.short)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	ret, params, err := MethodSignature("(I[BLjava/lang/Object;)[J", true)
	require.NoError(t, err)
	assert.Equal(t, "long[]", ret)
	assert.Equal(t, []string{"int", "byte[]", "Object"}, params)
}
