package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/On-Jun9/YearReel/internal/config"
	"github.com/On-Jun9/YearReel/internal/web"
)

var appVersion = "0.1.0"

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	cfgFile := flag.String("config", "", "config file path")
	source := flag.String("source", "", "media source directory")
	projectDir := flag.String("project-dir", "", "project directory for artifacts and output")
	targetYear := flag.Int("year", 0, "target year")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *cfgFile != "" {
		cfg, err = config.LoadFromFile(*cfgFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	if *source != "" {
		cfg.Source = *source
	}
	if *projectDir != "" {
		cfg.ProjectDir = *projectDir
	}
	if *targetYear != 0 {
		cfg.TargetYear = *targetYear
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	srv := web.NewServer(cfg)
	srv.SetVersion(appVersion)

	fmt.Printf("YearReel validator listening on %s (year %d, source %s)\n",
		*addr, cfg.TargetYear, cfg.Source)
	if err := srv.Start(*addr); err != nil {
		log.Fatal(err)
	}
}
