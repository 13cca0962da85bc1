package mozjs

import (
	"reflect"
	"testing"

	"jsbuild/internal/dag"
	"jsbuild/internal/filelist"
	"jsbuild/internal/toolchain"
)

func testHost() Host {
	return Host{
		Env:      toolchain.NewEnv(),
		Registry: filelist.NewRegistry(),
		Builder:  dag.NewBuilder(),
		BuildDir: "build",
	}
}

func TestRegister_AppendsObjectsToScriptingFiles(t *testing.T) {
	host := testHost()
	host.Registry.Append(filelist.ScriptingFiles, "host/engine_glue.o")

	opts := options("linux", false)
	reg, err := Register(opts, host)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	files := host.Registry.Files(filelist.ScriptingFiles)
	if len(files) != 1+len(DefaultSources) {
		t.Fatalf("expected %d files, got %d", 1+len(DefaultSources), len(files))
	}
	if files[0] != "host/engine_glue.o" {
		t.Fatalf("existing entries must stay first: %v", files[:2])
	}
	if files[1] != "build/js-1.7/jsapi.o" || files[len(files)-1] != "build/js-1.7/prmjtime.o" {
		t.Fatalf("unexpected object paths %s ... %s", files[1], files[len(files)-1])
	}
	if !reflect.DeepEqual(files[1:], reg.Objects) {
		t.Fatal("registration objects differ from registry")
	}
	if host.Builder.Len() != 2*len(Generators)+len(DefaultSources) {
		t.Fatalf("unexpected step count %d", host.Builder.Len())
	}
}

func TestRegister_ObjectsDependOnBothHeaders(t *testing.T) {
	host := testHost()
	opts := options("linux", false)
	opts.Sources = []string{"jsapi.c", "jsscan.c"}
	if _, err := Register(opts, host); err != nil {
		t.Fatal(err)
	}

	g, err := host.Builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, obj := range []string{"obj-jsapi.c", "obj-jsscan.c"} {
		want := []string{"gen-jsautocfg.h", "gen-jsautokw.h"}
		if got := g.Dependencies(obj); !reflect.DeepEqual(got, want) {
			t.Errorf("%s depends on %v, want %v", obj, got, want)
		}
	}
	if deps := g.Dependencies("gen-jsautokw.h"); !reflect.DeepEqual(deps, []string{"cc-jskwgen"}) {
		t.Errorf("keyword header depends on %v", deps)
	}
}

func TestRegister_ObjectCommandsUseEngineEnv(t *testing.T) {
	host := testHost()
	host.Env.Flags.Add("-Werror")
	opts := options("darwin", false)
	opts.Sources = []string{"jsapi.c"}
	opts.CC = "clang"
	if _, err := Register(opts, host); err != nil {
		t.Fatal(err)
	}

	obj := host.Builder.Steps()[len(host.Builder.Steps())-1]
	want := []string{
		"clang", "-DXP_UNIX", "-DJSFILE", "-DEXPORT_JS_API", "-DJS_C_STRINGS_ARE_UTF8",
		"-DHAVE_VA_COPY", "-DVA_COPY=va_copy",
		"-Ibuild/js-1.7", "-Ijs-1.7",
		"-c", "js-1.7/jsapi.c", "-o", "build/js-1.7/jsapi.o",
	}
	if !reflect.DeepEqual(obj.Command, want) {
		t.Fatalf("object command\nwant %v\ngot  %v", want, obj.Command)
	}
	if !host.Env.Flags.Contains("-Werror") {
		t.Fatal("host flags were modified")
	}
}

func TestRegister_DisabledLeavesHostUntouched(t *testing.T) {
	host := testHost()
	host.Env.Flags.Add("-Werror")
	opts := options("linux", false)
	opts.UseSM = false

	reg, err := Register(opts, host)
	if err != nil || reg != nil {
		t.Fatalf("expected nil registration and error, got %v, %v", reg, err)
	}
	if len(host.Registry.Categories()) != 0 {
		t.Fatal("registry modified")
	}
	if host.Builder.Len() != 0 {
		t.Fatal("steps registered")
	}
	if len(host.Env.Defines()) != 0 || len(host.Env.IncludePaths()) != 0 || !host.Env.Flags.Contains("-Werror") {
		t.Fatal("host env modified")
	}
}

func TestRegister_InvalidOptionsTouchNothing(t *testing.T) {
	host := testHost()
	opts := options("linux", false)
	opts.EngineVersion = "2.1.0"
	if _, err := Register(opts, host); err == nil {
		t.Fatal("expected error for unsupported engine version")
	}
	if len(host.Env.Defines()) != 0 || host.Builder.Len() != 0 {
		t.Fatal("host modified by a rejected registration")
	}
}
