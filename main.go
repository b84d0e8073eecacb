package main

import "github.com/qobs-build/vsgen/cmd"

func main() {
	cmd.Execute()
}
