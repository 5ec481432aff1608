package main

import (
	// Register Plugins via side-effects
	_ "linkguard/internal/collectors/file"
	_ "linkguard/internal/collectors/http"
	_ "linkguard/internal/publishers/file"
	_ "linkguard/internal/publishers/github"
	_ "linkguard/internal/publishers/stdout"
)

func main() {
	Execute()
}
