package main

import "github.com/chriserin/xlfeat/cmd"

func main() {
	cmd.Execute()
}
