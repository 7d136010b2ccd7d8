// Package main is the entry point for wildgate, a self-describing HTTP
// boundary in front of a backgammon evaluation engine.
package main

func main() {
	Execute()
}
