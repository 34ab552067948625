package main

import "github.com/slasia/smart-restaurant/internal/cli"

func main() {
	cli.Execute()
}
