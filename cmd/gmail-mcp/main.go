// ABOUTME: Entry point for the Gmail MCP server
// ABOUTME: Dispatches to the cobra command tree

package main

// version will be set by goreleaser during build
var version = "dev"

func main() {
	setVersion(version)
	execute()
}
