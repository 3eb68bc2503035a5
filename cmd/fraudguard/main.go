package main

import "fraudguard/internal/cli"

func main() {
	cli.Execute()
}
