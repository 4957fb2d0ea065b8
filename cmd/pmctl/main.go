package main

import "pmadmin-backend/internal/cli"

func main() {
	cli.Execute()
}
