package main

import (
	"os"

	"github.com/dmitrijs2005/hashenv/internal/keytool"
)

func main() {
	os.Exit(keytool.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
