// Package main is the client board: the same hardship board as the server,
// but run locally against one durable key in a JSON file or Redis, the way
// a browser app keeps its state in local storage.
//
// Usage:
//
//	board post --category work "lost my job today"
//	board list --sort most-liked --pages 2
//	board like 1716045600000
//	board comment 1716045600000 "hang in there"
//	board --redis redis://localhost:6379/0 list --mine
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := execute(newRootCmd()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
