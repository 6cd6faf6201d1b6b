// Command maintlog records shopfloor maintenance activity.
package main

import "github.com/mesh-intelligence/maintlog/internal/cli"

func main() {
	cli.Execute()
}
