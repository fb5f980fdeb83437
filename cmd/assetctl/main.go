// Command assetctl is the operator CLI for the asset registry.
package main

import (
	"github.com/joho/godotenv"

	"github.com/nerrad567/asset-registry/internal/cli"
)

func main() {
	// .env is optional; ASSETS_SERVER may come from it.
	_ = godotenv.Load()

	cli.Execute()
}
