package main

import (
	"flag"
	"log"

	"topdown-racer/internal/bridge"
	"topdown-racer/internal/config"
)

func main() {
	addr := flag.String("addr", ":9876", "listen address")
	configPath := flag.String("config", "", "config JSON path (default: built-in config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}

	server := bridge.NewServer(*addr, cfg)
	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
