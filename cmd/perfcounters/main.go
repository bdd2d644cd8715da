package main

import "github.com/theblitlabs/perfcounters/cmd/cli"

func main() {
	cli.Execute()
}
