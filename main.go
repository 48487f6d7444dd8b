package main

import (
	"github.com/taskwell/taskwell/cli"
)

func main() {
	cli.Main()
}
