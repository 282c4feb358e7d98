package main

import "github.com/sharpclaw/mk8/cmd"

func main() {
	cmd.Execute()
}
