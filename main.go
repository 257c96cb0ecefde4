// SPDX-License-Identifier: MPL-2.0

// mnetest derives the MNE-Python CI test invocation from the
// environment and runs it, replacing the shell script that used to
// assemble the pytest command line.
package main

import (
	cmd "mnetest/cmd/mnetest"
)

func main() {
	cmd.Execute()
}
