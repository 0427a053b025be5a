package symbols

import (
	"fmt"

	"forge.dev/emberc/internal/symbolname"
	"forge.dev/emberc/internal/types"
)

// MethodSymbol is the fully-qualified, linker-visible name of a method:
// its defining module's name plus the method's own name, matching the
// `$main`/specialization naming scheme internal/symbolname defines.
type MethodSymbol string

// QualifiedName computes the linker symbol for a method declared in
// module mod (spec.md §2/§7 symbol naming rules).
func QualifiedName(mod symbolname.ModuleName, methodName string) MethodSymbol {
	return MethodSymbol(fmt.Sprintf("%s.%s", mod, methodName))
}

// MethodsTable is the ordered list of a class's own declared methods, in
// declaration order. Default methods inherited from traits are not listed.
type MethodsTable struct {
	Class   types.ClassId
	Methods []types.MethodId
}

// BuildMethodsTable lists a class's own declared methods in declaration
// order. Default-method implementations the class inherits from traits it
// implements are not added.
func BuildMethodsTable(db types.Database, class *types.Class) *MethodsTable {
	t := &MethodsTable{Class: class.Id}
	seen := make(map[string]bool, len(class.Methods))

	for _, id := range class.Methods {
		if m := db.Method(id); m != nil {
			seen[m.Name] = true
		}
		t.Methods = append(t.Methods, id)
	}

	return t
}

// ResolveOverride returns the class's own declared method with the given
// name, if there is one. It reports false otherwise; trait default methods
// are not consulted.
func ResolveOverride(db types.Database, class *types.Class, name string) (types.MethodId, bool) {
	for _, id := range class.Methods {
		if m := db.Method(id); m != nil && m.Name == name {
			return id, true
		}
	}
	return 0, false
}
