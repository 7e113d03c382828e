package main

import "github.com/mcoot/sketchguess/internal/cli"

func main() {
	cli.Execute()
}
