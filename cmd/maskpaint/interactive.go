package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type interactiveCmd struct {
	r  *root
	in io.Reader
}

// Run reads commands line by line and runs each as if given on the
// command line.
func (i *interactiveCmd) Run() error {
	out := i.r.out()
	fmt.Fprintln(out, "Enter commands (type 'exit' to quit)")
	scanner := bufio.NewScanner(i.in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			break
		}
		args := strings.Fields(line)
		if args[0] == "interactive" {
			continue
		}
		if err := i.r.dispatch(args[0], args[1:]); err != nil {
			fmt.Fprintln(i.r.errOut(), err)
		}
	}
	return scanner.Err()
}
