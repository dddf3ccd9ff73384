// Package macro implements the scoped macro store and expansion engine used
// by the startup-script interpreter.
//
// A Context holds a stack of frames. Interpreting a nested script pushes a
// frame; returning pops it. A name defined in an inner frame shadows outer
// definitions for the lifetime of that frame. Expansion resolves $(name),
// ${name} and the legacy bare $name form by searching the current frame
// outward to the root.
//
// Expansion is forgiving: an undefined name is emitted literally and
// recorded as a diagnostic rather than failing the run. Strict mode opts
// into hard errors. A macro whose own value references itself, directly or
// through other macros, is detected as a cycle and also degrades to literal
// text.
//
// Expanded values are cached per entry until the entry is redefined or its
// frame is popped. Nested references inside a value resolve relative to the
// frame the value was defined in, so caching never observes inner-frame
// shadowing that will disappear on pop.
package macro
