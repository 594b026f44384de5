package main

import "github.com/cinehub/backoffice/internal/cli"

func main() {
	cli.Execute()
}
