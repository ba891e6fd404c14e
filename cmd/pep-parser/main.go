package main

import "github.com/agatinet31/pep-parser/internal/cli"

func main() {
	cli.Execute()
}
