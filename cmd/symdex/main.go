package main

import "github.com/mvp-joe/symdex/internal/cli"

func main() {
	cli.Execute()
}
