// cmd/glint/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/glint-lang/glint/cmd/glint/commands"
	"github.com/glint-lang/glint/internal/repl"
)

const VERSION = "0.1.0"

// commandAliases mirrors the teacher's flat alias map in cmd/sentra/main.go.
var commandAliases = map[string]string{
	"r": "run",
	"b": "build",
	"t": "tokens",
	"a": "ast",
	"i": "repl",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		showVersion()
	case "run":
		if err := commands.RunCommand(args[1:]); err != nil {
			log.Fatalf("error: %v", err)
		}
	case "build":
		if err := commands.BuildCommand(args[1:]); err != nil {
			log.Fatalf("error: %v", err)
		}
	case "tokens":
		if err := commands.TokensCommand(args[1:]); err != nil {
			log.Fatalf("error: %v", err)
		}
	case "ast":
		if err := commands.ASTCommand(args[1:]); err != nil {
			log.Fatalf("error: %v", err)
		}
	case "repl":
		if err := repl.Start(); err != nil {
			log.Fatalf("error: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println("Glint — indentation-structured scripting language")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  glint run <file.gl>     Compile and run a script           (alias: r)")
	fmt.Println("  glint build <file.gl>   Compile to a standalone .glntc     (alias: b)")
	fmt.Println("  glint tokens <file.gl>  Print the token stream             (alias: t)")
	fmt.Println("  glint ast <file.gl>     Print the parsed statement tree    (alias: a)")
	fmt.Println("  glint repl              Start the interactive REPL        (alias: i)")
	fmt.Println()
	fmt.Println("  glint --version         Show version")
	fmt.Println("  glint --help            Show this help")
}

func showVersion() {
	fmt.Printf("glint version %s\n", VERSION)
}
