package main

import "github.com/forPelevin/karaoke/internal/cli"

func main() {
	cli.Main()
}
