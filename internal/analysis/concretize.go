package analysis

import (
	"github.com/glint-lang/glint/internal/diag"
	"github.com/glint-lang/glint/internal/ir"
)

// concretize converts the analyzed IR into Typed IR: every variable's final
// entry in the Type Map is written back onto the Var table, and every
// variable referenced by the program must already be Processed (no
// Indeterminate or Number left) by this point. resolveTypes already reports
// any remaining Indeterminate variable as a recoverable UntypedVariable
// diagnostic; reaching concretize with one still unresolved means the
// recoverable pass missed something, so this is treated as an internal
// compiler error rather than silently producing a half-typed program.
func (c *Context) concretize() ([]ir.Inst, error) {
	for i := range c.vars {
		v := &c.vars[i]
		info := c.typeMap[v.ID]
		if info == nil {
			continue
		}
		v.Type = info.Current
		if !v.Type.IsConcrete() {
			name := v.Name
			if name == "" {
				name = "<temp>"
			}
			return nil, diag.InternalCompilerError(diag.StageAnalyzer, v.Span,
				"variable %q reached concretization with non-concrete type %s", name, v.Type.String())
		}
	}
	return c.instructions, nil
}
