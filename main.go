// dirserve – a small HTTP server that renders a browsable index for a
// single directory tree and streams its files.
package main

import (
	"embed"
	"log"
	"os"

	"dirserve/config"
	"dirserve/server"
	"dirserve/service"
)

//go:embed templates static
var embeddedFS embed.FS

func main() {
	// `dirserve service ...` generates/installs a systemd unit instead
	// of serving.
	if len(os.Args) > 1 && os.Args[1] == "service" {
		if err := service.Run(os.Args[2:]); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	server.SetStaticFS(embeddedFS)

	if err := server.Run(cfg, embeddedFS); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
