package main

import "github.com/pfrederiksen/him-waste/internal/cli"

func main() {
	cli.Execute()
}
