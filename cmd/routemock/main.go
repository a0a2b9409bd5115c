// routemock serves mock API routes from definition files and reloads them
// when the files change.
package main

import (
	"os"

	"github.com/getmockd/routemock/pkg/cli"
)

func main() {
	os.Exit(cli.Main())
}
