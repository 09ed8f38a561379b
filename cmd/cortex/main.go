package main

import "cortex/internal/cli"

func main() {
	cli.Execute()
}
