// Package api provides the HTTP API for the application
package api

import (
	"consultmail/internal/platform/config"
	"consultmail/internal/platform/logger"
	phttp "consultmail/internal/platform/net/http"

	"consultmail/internal/modkit"
	"consultmail/internal/modkit/httpkit"
	"consultmail/internal/modkit/module"

	metamod "consultmail/internal/services/api/meta/module"
	reportsmod "consultmail/internal/services/reports/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Logger         *logger.Logger
	Reports        reportsmod.Options
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
	}

	// the reports module owns the mail adapters; meta pings its source
	reports := reportsmod.New(deps, opt.Reports)
	src := module.MustPortsOf[reportsmod.Ports](reports).Source

	mods := []module.Module{
		metamod.New(deps, modkit.WithPorts(metamod.Ports{Source: src})),
		reports,
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
