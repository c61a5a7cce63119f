// Command webscout crawls a site from one or more seed URLs.
package main

import (
	cmd "github.com/dnovak/webscout/internal/cli"
)

func main() {
	cmd.Execute()
}
