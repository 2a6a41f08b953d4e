package main

import "github.com/whylang/wasmc/cmd"

func main() {
	cmd.Execute()
}
