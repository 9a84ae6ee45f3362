// Command librarian runs the lending operations against PostgreSQL or an in-memory store.
//
// Every operation prints its result as JSON on stdout. A rejected operation prints
// {"error": <code>, "message": <text>} and exits with status 2; any other failure exits with status 1.
package main

import (
	"os"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
