// cmd/glint/commands/astprint.go
package commands

import (
	"fmt"
	"strings"

	"github.com/glint-lang/glint/internal/parser"
)

// astPrinter renders a statement tree as indented s-expression-flavored
// text, implementing parser.StmtVisitor/ExprVisitor the way a teacher
// AST-dump debug command would.
type astPrinter struct{}

func (p *astPrinter) line(depth int, format string, args ...interface{}) {
	fmt.Print(strings.Repeat("  ", depth))
	fmt.Printf(format+"\n", args...)
}

func (p *astPrinter) printStmt(s parser.Stmt, depth int) {
	switch n := s.(type) {
	case *parser.VarDecl:
		p.line(depth, "VarDecl %s", n.Name)
		if n.Init != nil {
			p.printExpr(n.Init, depth+1)
		}
	case *parser.Assign:
		p.line(depth, "Assign %s", n.Name)
		p.printExpr(n.Value, depth+1)
	case *parser.If:
		p.line(depth, "If")
		p.printBranch(n.Primary, depth+1)
		for _, elif := range n.Elifs {
			p.line(depth, "Elif")
			p.printBranch(elif, depth+1)
		}
		if n.Else != nil {
			p.line(depth, "Else")
			p.printBranch(*n.Else, depth+1)
		}
	case *parser.While:
		p.line(depth, "While")
		p.printExpr(n.Cond, depth+1)
		for _, body := range n.Body {
			p.printStmt(body, depth+1)
		}
	case *parser.Break:
		p.line(depth, "Break")
	case *parser.Continue:
		p.line(depth, "Continue")
	case *parser.TypeDef:
		p.line(depth, "TypeDef %s", n.Name)
	case *parser.Comment:
		p.line(depth, "Comment %q", n.Text)
	default:
		p.line(depth, "<unknown statement>")
	}
}

func (p *astPrinter) printBranch(b parser.Branch, depth int) {
	if b.Cond != nil {
		p.printExpr(b.Cond, depth)
	}
	for _, s := range b.Body {
		p.printStmt(s, depth)
	}
}

func (p *astPrinter) printExpr(e parser.Expr, depth int) {
	switch n := e.(type) {
	case *parser.Literal:
		p.line(depth, "Literal %s", n.Text)
	case *parser.Identifier:
		p.line(depth, "Identifier %s", n.Name)
	case *parser.Binary:
		p.line(depth, "Binary %s", n.Op)
		p.printExpr(n.Left, depth+1)
		p.printExpr(n.Right, depth+1)
	case *parser.Unary:
		p.line(depth, "Unary %s", n.Op)
		p.printExpr(n.Operand, depth+1)
	case *parser.Invalid:
		p.line(depth, "Invalid %q", n.Text)
	default:
		p.line(depth, "<unknown expression>")
	}
}
