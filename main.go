// Copyright (c) 2024-2026 Carsen Klock under MIT License
// macbar is a live status line system monitor for Apple Silicon Macs! github.com/context-labs/macbar
package main

import "github.com/context-labs/macbar/internal/app"

func main() {
	app.Run()
}
