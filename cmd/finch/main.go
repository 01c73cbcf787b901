package main

import "github.com/tessro/finch/internal/cli"

func main() {
	cli.Execute()
}
