package mozjs

import (
	"jsbuild/internal/config"
	"jsbuild/internal/toolchain"
)

// Preprocessor symbols set for the host and the engine.
const (
	DefineWindows = "XP_WIN"
	DefineUnix    = "XP_UNIX"
)

// engineDefines enable the file object, export the public API and treat C
// strings as UTF-8.
var engineDefines = []string{"JSFILE", "EXPORT_JS_API", "JS_C_STRINGS_ARE_UTF8"}

// Flags the engine does not compile cleanly under.
const (
	flagWerror         = "-Werror"
	flagWerrorPrefix   = "-Werror="
	flagMSVCWarnErrors = "/WX"
	flagPermissiveOff  = "/permissive-"
)

// Configure sets up host for the engine and returns the engine's own
// environment.
//
// The host receives the OS symbol (exactly one of XP_WIN and XP_UNIX) and the
// engine include directories, since host code includes the engine's headers
// too. Everything else goes into a clone: the engine defines, the removal of
// warnings-as-errors (and of /permissive- on Windows) and, on linux and
// darwin targets, HAVE_VA_COPY and VA_COPY=va_copy.
//
// With UseSM false Configure returns nil and leaves host untouched.
func Configure(opts config.Options, layout Layout, host *toolchain.Env) *toolchain.Env {
	if !opts.UseSM {
		return nil
	}

	if opts.Windows {
		host.RemoveDefine(DefineUnix)
		host.AppendDefine(DefineWindows)
	} else {
		host.RemoveDefine(DefineWindows)
		host.AppendDefine(DefineUnix)
	}
	host.AppendIncludePath(layout.BuildDir)
	host.AppendIncludePath(layout.SourceDir)

	js := host.Clone()
	for _, d := range engineDefines {
		js.AppendDefine(d)
	}

	js.Flags.Remove(flagWerror)
	js.Flags.RemovePrefix(flagWerrorPrefix)
	js.Flags.Remove(flagMSVCWarnErrors)
	if opts.Windows {
		js.Flags.Remove(flagPermissiveOff)
	}

	if definesVaCopy(opts.TargetOS) {
		js.AppendDefine("HAVE_VA_COPY")
		js.AppendDefineValue("VA_COPY", "va_copy")
	}
	return js
}

func definesVaCopy(targetOS string) bool {
	p, err := toolchain.LookupPlatform(targetOS)
	return err == nil && p.VaCopy
}
