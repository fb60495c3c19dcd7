package main

import "github.com/dcos/pipe-cutter/cmd"

func main() {
	cmd.Execute()
}
