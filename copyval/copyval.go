// Package copyval implements the value-copy engine (spec §4.1): deep-copying
// one value from a source interpreter state to a destination interpreter
// state, with handle types dispatched to their registered copy hook.
//
// Goja has no metatable concept, so "table without a metatable" becomes
// "plain Object/Array export" below: anything that Export()s to
// map[string]interface{} or []interface{} is treated as a copyable table:
// anything that Export()s to a registered Handle is dispatched to its copy
// hook; anything else (functions, symbols, unrecognised host objects) fails
// closed with UnsupportedTypeError. This intentionally does not attempt to
// detect a JS class instance masquerading as a plain object — Goja's object
// model doesn't have the Lua metatable-swap attack the original guarded
// against, since there is no C-level pointer aliasing to defend against in
// Go's type system.
package copyval

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/siffiejoe/tinylthread/handle"
	"github.com/siffiejoe/tinylthread/internal/errs"
	"github.com/siffiejoe/tinylthread/state"
)

// Copy copies one value from src to dst, returning its image in dst's
// runtime. index identifies the value's position for UnsupportedTypeError
// (e.g. the argument index at a thread spawn, or 0 for a single channel
// value).
func Copy(src, dst *state.State, index int, v goja.Value) (goja.Value, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return goja.Null(), nil
	}
	return copyExported(dst, index, v.Export())
}

// copyExported copies an already-Export()ed value. It is also used
// recursively for each entry of a table, where Goja has already exported
// nested values for us; a nested container at that point is rejected per the
// "no nested tables" restriction rather than recursed into.
func copyExported(dst *state.State, index int, exported any) (goja.Value, error) {
	switch x := exported.(type) {
	case nil:
		return goja.Null(), nil
	case bool:
		return dst.VM.ToValue(x), nil
	case string:
		return dst.VM.ToValue(x), nil
	case int64:
		return dst.VM.ToValue(x), nil
	case int:
		return dst.VM.ToValue(int64(x)), nil
	case float64:
		return dst.VM.ToValue(x), nil
	case *state.InterruptSentinel:
		// The interrupt sentinel's copy hook is special: it carries no
		// state, it just resolves to the destination's own sentinel.
		return dst.VM.ToValue(dst.Sentinel()), nil
	case handle.Handle:
		hook, ok := handle.Lookup(x)
		if !ok {
			return nil, &errs.UnsupportedTypeError{Index: index, TypeName: fmt.Sprintf("%T", x)}
		}
		copied, err := hook(dst, x)
		if err != nil {
			return nil, err
		}
		return dst.VM.ToValue(copied), nil
	case map[string]any:
		return copyTable(dst, index, x)
	case []any:
		return copyArray(dst, index, x)
	default:
		return nil, &errs.UnsupportedTypeError{Index: index, TypeName: fmt.Sprintf("%T", x)}
	}
}

// copyTable copies a plain-object table. Every value must be a scalar or a
// shareable handle; a nested table fails the copy, matching "no nested
// tables as values".
func copyTable(dst *state.State, index int, x map[string]any) (goja.Value, error) {
	obj := dst.VM.NewObject()
	for k, rawVal := range x {
		if err := rejectNestedContainer(index, rawVal); err != nil {
			return nil, err
		}
		val, err := copyExported(dst, index, rawVal)
		if err != nil {
			return nil, err
		}
		if err := obj.Set(k, val); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// copyArray copies a plain-array table under the same value restriction as
// copyTable.
func copyArray(dst *state.State, index int, x []any) (goja.Value, error) {
	vals := make([]goja.Value, len(x))
	for i, rawVal := range x {
		if err := rejectNestedContainer(index, rawVal); err != nil {
			return nil, err
		}
		val, err := copyExported(dst, index, rawVal)
		if err != nil {
			return nil, err
		}
		vals[i] = val
	}
	return dst.VM.NewArray(toAnySlice(vals)...), nil
}

func rejectNestedContainer(index int, v any) error {
	switch v.(type) {
	case map[string]any, []any:
		return &errs.UnsupportedTypeError{Index: index, TypeName: "nested table"}
	default:
		return nil
	}
}

func toAnySlice(vals []goja.Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
