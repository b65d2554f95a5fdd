package main

import "casebase/internal/cli"

func main() {
	cli.Execute()
}
