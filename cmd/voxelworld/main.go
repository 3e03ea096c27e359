package main

import (
	"flag"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/faiface/mainthread"

	"voxelworld/internal/config"
	"voxelworld/internal/game"
)

var (
	configPath   = flag.String("c", "voxelworld.yaml", "config file")
	dbPath       = flag.String("db", "", "db file name (overrides config)")
	renderRadius = flag.Int64("r", 0, "render radius in chunks (overrides config)")
	texturePath  = flag.String("t", "texture.png", "texture file")
	pprofPort    = flag.String("pprof", "", "http pprof port")
)

func run() {
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *renderRadius > 0 {
		cfg.RenderRadius = *renderRadius
	}

	g, err := game.NewGame(cfg, *texturePath, 800, 600)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	tick := time.Tick(time.Second / 60)
	for !g.ShouldClose() {
		<-tick
		g.Update()
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	flag.Parse()
	go func() {
		if *pprofPort != "" {
			log.Fatal(http.ListenAndServe(*pprofPort, nil))
		}
	}()
	mainthread.Run(run)
}
