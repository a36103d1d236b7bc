package main

import "github.com/javanhut/arbor/cli"

func main() {
	cli.Execute()
}
