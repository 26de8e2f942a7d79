// Command traitforge generates unique trait combinations for layered image
// editions.
package main

import "github.com/mesh-intelligence/traitforge/internal/cli"

func main() {
	cli.Execute()
}
