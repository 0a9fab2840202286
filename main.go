package main

import "github.com/amaliebjorgen/fabricops/cmd"

func main() {
	cmd.Execute()
}
