package main

import "github.com/moyu-x/file-mover/cmd"

func main() {
	cmd.Execute()
}
