// Package bitfield models arbitrary, bit-aligned binary interfaces and gives
// precise, composable read/write access to their fields. A layout is described
// by composing types (Uint, Sint, UintEnum, Utf8, StructOf, ArrayOf, plus
// registered custom leaves); Instantiate fixes every field's absolute bit
// offset, and Bind attaches the tree to a mutable raw integer cell.
//
// The layout convention is packed and byte-agnostic: a struct written as
// (a, b) places a at bit 0 of the raw integer and b directly above it, so the
// raw value equals (b << widthOf(a)) | a. A leaf read is
// (raw >> offset) & ((1<<width)-1) with an optional sign extension or enum
// lookup on top.
//
// The expr subpackage lifts field references and comparisons into a bitwise
// expression IR and renders it as portable source text; the bfjson subpackage
// bridges bound interfaces to and from JSON.
package bitfield
