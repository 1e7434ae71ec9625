package main

import "github.com/ndhoang/contractwatch/internal/cli"

func main() {
	cli.Execute()
}
