// Public domain.

package main

import "github.com/soniakeys/ebexvar/internal/evprog"

func main() {
	evprog.Main()
}
