// Command mock-claude is a stand-in for the claude executable. It echoes
// the prompt and honors the directives documented in pkg/invoker/fakecli,
// which makes it useful for local end-to-end runs of the server:
//
//	CLAUDENODE_CLI_PATH=$(go env GOPATH)/bin/mock-claude server
package main

import (
	"os"

	"github.com/rhuss/claudenode/pkg/invoker/fakecli"
)

func main() {
	os.Exit(fakecli.Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
