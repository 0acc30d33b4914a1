package main

import (
	"context"

	"consultmail/internal/platform/config"
	"consultmail/internal/platform/logger"
	phttp "consultmail/internal/platform/net/http"

	"consultmail/internal/services/api"
	reportsmod "consultmail/internal/services/reports/module"
)

func main() {
	// service-scoped config for HTTP etc (CONSULT_API_*)
	root := config.New()
	apiCfg := root.Prefix("CONSULT_API_")

	// bring up logging early
	l := logger.Get()

	// http server (reads CONSULT_API_PORT / CONSULT_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Logger:         l,
			Reports:        reportsmod.FromConfig(apiCfg),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	// run
	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
