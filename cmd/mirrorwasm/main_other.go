//go:build !(js && wasm)

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "mirrorwasm only runs as WebAssembly: GOOS=js GOARCH=wasm go build -o static/mirror.wasm ./cmd/mirrorwasm")
	os.Exit(1)
}
