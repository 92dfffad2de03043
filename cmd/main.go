// cmd/main.go
package main

import cmd "github.com/mwiater/bottleneck/cmd/bottleneck"

// main starts the bt CLI application by delegating to the cobra root
// command defined in the bottleneck package.
func main() {
	cmd.Execute()
}
