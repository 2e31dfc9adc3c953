package main

import (
	"os"

	"github.com/storefront/cartsync/internal/interfaces/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
