package toolchain

import (
	"reflect"
	"testing"
)

func TestParseDefine(t *testing.T) {
	cases := map[string]Define{
		"XP_UNIX":         {Name: "XP_UNIX"},
		"VA_COPY=va_copy": {Name: "VA_COPY", Value: "va_copy", HasValue: true},
		"EMPTY=":          {Name: "EMPTY", HasValue: true},
	}
	for in, want := range cases {
		got := ParseDefine(in)
		if got != want {
			t.Errorf("ParseDefine(%q) = %+v, want %+v", in, got, want)
		}
		if got.String() != in {
			t.Errorf("round trip of %q gave %q", in, got.String())
		}
	}
}

func TestEnv_AppendDefineReplacesSameName(t *testing.T) {
	env := NewEnv()
	env.AppendDefine("A")
	env.AppendDefineValue("B", "1")
	env.AppendDefineValue("A", "2")

	want := []Define{{Name: "A", Value: "2", HasValue: true}, {Name: "B", Value: "1", HasValue: true}}
	if got := env.Defines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected defines %+v", got)
	}
}

func TestEnv_RemoveDefine(t *testing.T) {
	env := NewEnv()
	env.AppendDefine("XP_WIN")
	if !env.RemoveDefine("XP_WIN") {
		t.Fatal("expected XP_WIN to be removed")
	}
	if env.HasDefine("XP_WIN") || env.RemoveDefine("XP_WIN") {
		t.Fatal("XP_WIN still present")
	}
}

func TestEnv_CloneIsDeep(t *testing.T) {
	parent := NewEnv()
	parent.AppendDefine("HOST")
	parent.AppendIncludePath("include")
	parent.Flags.Add("-Werror")

	child := parent.Clone()
	child.AppendDefine("JSFILE")
	child.AppendDefineValue("HOST", "changed")
	child.AppendIncludePath("js")
	child.Flags.Remove("-Werror")

	if parent.HasDefine("JSFILE") {
		t.Error("child define leaked into parent")
	}
	if d, _ := parent.Define("HOST"); d.HasValue {
		t.Error("child redefinition leaked into parent")
	}
	if !reflect.DeepEqual(parent.IncludePaths(), []string{"include"}) {
		t.Errorf("parent include path changed: %v", parent.IncludePaths())
	}
	if !parent.Flags.Contains("-Werror") {
		t.Error("parent flags changed")
	}
	if !reflect.DeepEqual(child.IncludePaths(), []string{"include", "js"}) {
		t.Errorf("unexpected child include path %v", child.IncludePaths())
	}
}

func TestEnv_AppendIncludePathDeduplicates(t *testing.T) {
	env := NewEnv()
	env.AppendIncludePath("js")
	env.AppendIncludePath("js")
	env.AppendIncludePath("")
	if got := env.IncludePaths(); !reflect.DeepEqual(got, []string{"js"}) {
		t.Fatalf("unexpected include path %v", got)
	}
}
