// Package main provides the scannode CLI, which runs a simulated QR sensor node.
package main

func main() {
	Execute()
}
