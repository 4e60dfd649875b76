package main

import "github.com/mvp-joe/code-ingest/internal/cli"

func main() {
	cli.Execute()
}
