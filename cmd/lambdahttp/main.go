// Package main implements the lambdahttp CLI.
// It detects and invokes trigger envelopes and runs the local gateway.
package main

import "github.com/heavens/lambdahttp/cmd/lambdahttp/cmd"

func main() {
	cmd.Execute()
}
