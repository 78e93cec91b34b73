package main

import "github.com/example/stockwatch/cmd"

func main() {
	cmd.Execute()
}
