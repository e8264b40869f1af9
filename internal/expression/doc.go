// Package expression resolves node parameter expressions.
//
// A parameter value is an expression when it is a string starting with "=".
// Every {{ ... }} segment in the remainder is compiled with expr-lang and
// evaluated against the per-item environment:
//
//	json   the input item's JSON payload
//	index  the zero-based item index
//	item   the whole input item (json and pairedItem)
//
// A value made of a single segment yields the segment's typed result, so
// "={{ json.count }}" resolves to a number. Any other value interpolates the
// results into a string: "=Hello {{ json.name }}!".
package expression
