/*
Copyright (c) 2026 veyra-labs
*/

package main

import "github.com/veyra-labs/dpscan/cmd"

func main() {
	cmd.Execute()
}
