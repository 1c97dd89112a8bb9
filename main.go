package main

import "ckscript/internal/cli"

func main() {
	cli.Execute()
}
