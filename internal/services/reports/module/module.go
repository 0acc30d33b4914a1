// Package module wires report jobs into the API using modkit
package module

import (
	"net/http"

	imapsrc "consultmail/internal/adapters/mailbox/imap"
	mboxsrc "consultmail/internal/adapters/mailbox/mbox"
	smtpnotify "consultmail/internal/adapters/notify/smtp"
	"consultmail/internal/adapters/report/xlsx"
	modkit "consultmail/internal/modkit"
	"consultmail/internal/modkit/httpkit"
	"consultmail/internal/services/reports/domain"
	rhttp "consultmail/internal/services/reports/http"
	rsvc "consultmail/internal/services/reports/service"
)

// Module implements the reports API module
type Module struct {
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc   domain.ServicePort
	ports Ports
}

// Ports exposes the module's surfaces for cross-module wiring: the job
// service and the message source (meta pings it for readiness)
type Ports struct {
	Service domain.ServicePort
	Source  domain.Fetcher
}

// New constructs the reports module. opt selects and configures the mail
// adapters; the modkit options cover naming, prefix and middleware
func New(deps modkit.Deps, opt Options, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("reports"),
		modkit.WithPrefix("/reports"),
	}, opts...)...)

	fetcher, err := newFetcher(opt)
	if err != nil {
		panic("reports module: " + err.Error())
	}

	var notifier domain.Notifier
	if opt.SMTPAddr != "" {
		n, err := smtpnotify.New(smtpnotify.Options{
			Addr:     opt.SMTPAddr,
			From:     opt.SMTPFrom,
			Username: opt.SMTPUser,
			Password: opt.SMTPPass,
		})
		if err != nil {
			panic("reports module: " + err.Error())
		}
		notifier = n
	}

	svc := rsvc.New(fetcher, notifier, xlsx.New(), rsvc.Config{
		MaxWorkers:   opt.MaxWorkers,
		FetchTimeout: opt.FetchTimeout,
	})

	m := &Module{
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
		ports:     Ports{Service: svc, Source: fetcher},
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		rhttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

func newFetcher(opt Options) (domain.Fetcher, error) {
	if opt.Source == "mbox" {
		return mboxsrc.New(mboxsrc.Options{Path: opt.MboxPath})
	}
	return imapsrc.New(imapsrc.Options{
		Addr:               opt.IMAPAddr,
		Mailbox:            opt.IMAPMailbox,
		InsecureSkipVerify: opt.IMAPInsecure,
	})
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }

// Ports exposes the module port set for cross-module wiring
func (m *Module) Ports() any { return m.ports }
