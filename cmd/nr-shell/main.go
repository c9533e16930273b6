// Command nr-shell is an interactive REPL over a single noderep.Replica
// driving the examples/stack demo structure, for poking at the library by
// hand.
//
// Commands:
//
//	push <n>     Push n onto the stack
//	pop          Pop the top of the stack
//	peek         Read the top of the stack without popping
//	sync         Wait for this replica to catch up to the log
//	help         Show this help
//	exit / quit  Exit
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/flatcombine/noderep/examples/stack"
	"github.com/flatcombine/noderep/pkg/noderep"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "nr-shell: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	log := noderep.NewLog[stack.WriteOp](noderep.DefaultLogBytes, 0)

	rep, err := noderep.NewReplica[stack.ReadOp, stack.WriteOp, stack.Response](stack.New(), log)
	if err != nil {
		return fmt.Errorf("creating replica: %w", err)
	}

	tok, err := rep.Register()
	if err != nil {
		return fmt.Errorf("registering thread: %w", err)
	}

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Println("nr-shell - noderep stack demo")
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		input, err := line.Prompt("nr-shell> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			saveHistory(line)

			return nil
		case "help", "?":
			printHelp()
		case "push":
			cmdPush(rep, tok, args)
		case "pop":
			cmdPop(rep, tok)
		case "peek":
			cmdPeek(rep, tok)
		case "sync":
			rep.Sync(tok)
			fmt.Println("ok")
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	saveHistory(line)

	return nil
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  push <n>     Push n onto the stack")
	fmt.Println("  pop          Pop the top of the stack")
	fmt.Println("  peek         Read the top of the stack without popping")
	fmt.Println("  sync         Wait for this replica to catch up to the log")
	fmt.Println("  help         Show this help")
	fmt.Println("  exit / quit  Exit")
}

func cmdPush(rep *noderep.Replica[stack.ReadOp, stack.WriteOp, stack.Response, *stack.Stack], tok noderep.Token, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: push <n>")
		return
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("usage: push <n>")
		return
	}

	resp := rep.ExecuteMut(stack.Push(n), tok)
	fmt.Printf("pushed %d (ok=%v)\n", n, resp.Ok)
}

func cmdPop(rep *noderep.Replica[stack.ReadOp, stack.WriteOp, stack.Response, *stack.Stack], tok noderep.Token) {
	resp := rep.ExecuteMut(stack.Pop(), tok)
	if !resp.Ok {
		fmt.Println("stack is empty")
		return
	}

	fmt.Println(resp.Value)
}

func cmdPeek(rep *noderep.Replica[stack.ReadOp, stack.WriteOp, stack.Response, *stack.Stack], tok noderep.Token) {
	resp := rep.Execute(stack.ReadOp{}, tok)
	if !resp.Ok {
		fmt.Println("stack is empty")
		return
	}

	fmt.Println(resp.Value)
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".nr-shell_history")
}

func saveHistory(line *liner.State) {
	path := historyFile()
	if path == "" {
		return
	}

	f, err := os.Create(path) //nolint:gosec // fixed, non-user-controlled path
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = line.WriteHistory(f)
}
