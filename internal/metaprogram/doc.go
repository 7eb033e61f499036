// Package metaprogram compiles and runs plua metaprograms.
//
// A plua file is Lua source interleaved with directive lines. A line whose
// first non-blank characters are "--!" holds a Starlark statement; every other
// line is emitted as-is, with ${expr} spans replaced by the value of expr.
//
//	--! for name in ["left", "right"]:
//	function on_${name}() end
//	--! end
//	--! if DEBUG:
//	print("debug build")
//	--! end
//
// Directives ending in ":" open a block, "--! end" closes it, and
// "--! else:" / "--! elif cond:" close and reopen. Compile turns the file into
// a Starlark program; Runtime executes it and returns the expanded Lua.
// Errors name the template line; attached Starlark backtraces refer to the
// generated program, reported as "<name> (generated)".
package metaprogram
