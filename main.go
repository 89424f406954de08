package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/prebid/tlx-bridge/config"
	"github.com/prebid/tlx-bridge/router"
	"github.com/prebid/tlx-bridge/server"
	"github.com/spf13/viper"
)

// Rev holds binary revision string
// Set manually at build time using:
//
//	go build -ldflags "-X main.Rev=`git rev-parse --short HEAD`"
var Rev string

func main() {
	flag.Parse() // required for glog flags and testing package flags

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	err = serve(Rev, cfg)
	if err != nil {
		glog.Exitf("tlx-bridge failed: %v", err)
	}
}

const configFileName = "tlx"

func loadConfig() (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName)
	return config.New(v)
}

func serve(revision string, cfg *config.Configuration) error {
	r, err := router.New(cfg)
	if err != nil {
		return err
	}
	defer r.Shutdown()

	corsRouter := router.SupportCORS(r)
	handler := router.RateLimit(cfg.RateLimit, router.NoCache{Handler: corsRouter})

	server.Listen(cfg, handler, router.Admin(revision, cfg.Version, r.MetricsEngine.Registry), r.MetricsEngine)
	return nil
}
