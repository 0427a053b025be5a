// Package symbolname holds the small value types used to name modules,
// classes, methods and constants once they've been assigned a generated
// symbol. Kept dependency-free so both internal/types and internal/symbols
// can import it without a cycle.
package symbolname

// ModuleName is the generated name of a MIR module: either a module's
// original source name, or a synthetic split name of the form
// "Original(S1,S2,...)" produced by the module splitter (§4.5).
type ModuleName string

// Split returns the synthetic name for a module produced by moving a
// specialized generic class C with shape tuple shapes out of module
// original, per §4.5: "M(C#S1,S2,...)".
func Split(original ModuleName, class string, shapeTuple string) ModuleName {
	return ModuleName(string(original) + "(" + class + "#" + shapeTuple + ")")
}

const MainModuleName ModuleName = "$main"
