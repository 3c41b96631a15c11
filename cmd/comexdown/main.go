package main

import "github.com/datallboy/comexdown/internal/cli"

func main() {
	cli.Execute()
}
