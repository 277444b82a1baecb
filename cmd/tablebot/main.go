package main

import "github.com/example/table-bot/cmd"

func main() {
	cmd.Execute()
}
