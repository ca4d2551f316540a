package main

import "github.com/Valerolactone/analytics-todo/internal/cli"

func main() {
	cli.Execute()
}
