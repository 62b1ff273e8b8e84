package main

import "github.com/ctps/projis-dump/internal/cli"

func main() {
	cli.Execute()
}
