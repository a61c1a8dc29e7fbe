package main

import "github.com/hostcard/pokerroom/internal/cli"

func main() {
	cli.Execute()
}
