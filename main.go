// Package main mirrors one branch of a remote git repository into a local
// cache directory and prepares the workspace around it.
//
// Usage:
//
//	repocache [remote-url] [branch] [cache-name]
package main

import "github.com/apiarycd/repocache/internal"

func main() {
	internal.Run()
}
