package main

import "github.com/cbrueffer/gridss/cmd"

func main() {
	cmd.Execute()
}
