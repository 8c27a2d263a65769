package main

import "github.com/askervin/gdbsearch/cmd"

func main() {
	cmd.Execute()
}
