// consultmail-report runs one report job end to end from the command line
// and writes the workbook next to the working directory. Useful for cron
// runs and for mbox fixtures without the HTTP surface
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"consultmail/internal/modkit"
	"consultmail/internal/platform/config"
	"consultmail/internal/platform/logger"
	"consultmail/internal/services/reports/domain"
	reportsmod "consultmail/internal/services/reports/module"
	"consultmail/internal/services/reports/stream"
)

func main() {
	root := config.New()
	cfg := root.Prefix("CONSULT_API_")

	l := logger.Get()

	var (
		fAddress  = flag.String("address", "", "mailbox address (owner of the consultations)")
		fPassword = flag.String("password", "", "mailbox password; falls back to CONSULT_API_REPORTS_PASSWORD")
		fStart    = flag.String("start", "", "start date YYYY-MM-DD (inclusive)")
		fEnd      = flag.String("end", "", "end date YYYY-MM-DD (inclusive)")
		fKeywords = flag.String("keywords", "", "comma separated required keywords; empty -> defaults")
		fIDLen    = flag.Int("id-length", domain.DefaultPatternLength, "student id digit count; 0 disables the id filter")
		fLax      = flag.Bool("lax", false, "lax student-id matching (body only)")
		fOut      = flag.String("out", "", "output path; empty -> the generated filename in the cwd")
	)
	flag.Parse()

	if *fAddress == "" || *fStart == "" || *fEnd == "" {
		l.Panic().Msg("must provide -address, -start and -end")
	}
	password := *fPassword
	if password == "" {
		password = cfg.Prefix("REPORTS_").MayString("PASSWORD", "")
	}

	opt := reportsmod.FromConfig(cfg)
	opt.MaxWorkers = 1

	mod := reportsmod.New(modkit.Deps{Cfg: cfg}, opt)
	svc := mod.Ports().(reportsmod.Ports).Service

	in := domain.SubmitInput{
		Address:       *fAddress,
		Password:      password,
		StartDate:     *fStart,
		EndDate:       *fEnd,
		PatternLength: fIDLen,
		Lax:           *fLax,
	}
	if *fKeywords != "" {
		for _, kw := range strings.Split(*fKeywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				in.Keywords = append(in.Keywords, kw)
			}
		}
	}

	ctx := context.Background()
	id, err := svc.Submit(ctx, in)
	if err != nil {
		l.Panic().Err(err).Msg("submit failed")
	}

	// follow the job's stream on stdout until it ends
	ch, cancel, err := svc.Subscribe(ctx, id)
	if err != nil {
		l.Panic().Err(err).Msg("subscribe failed")
	}
	defer cancel()
	for e := range ch {
		switch e.Type {
		case stream.EventTotal:
			l.Info().Int("total", e.Total).Msg("messages fetched")
		case stream.EventCurrent:
			l.Debug().Int("current", e.Index).Int("total", e.Total).Msg("processing")
		default:
			l.Info().Msg(e.Line)
		}
	}

	snap, err := svc.Status(ctx, id)
	if err != nil {
		l.Panic().Err(err).Msg("status failed")
	}
	if snap.State != domain.JobCompleted {
		l.Panic().Str("state", string(snap.State)).Str("error", snap.Error).Msg("job did not complete")
	}

	name, data, err := svc.Report(ctx, id)
	if err != nil {
		l.Panic().Err(err).Msg("report failed")
	}
	out := *fOut
	if out == "" {
		out = name
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		l.Panic().Err(err).Str("path", out).Msg("write report failed")
	}

	l.Info().
		Str("path", out).
		Int("rows", snap.ResultCount).
		Int("dropped", snap.DroppedCount).
		Dur("took", snap.UpdatedAt.Sub(snap.CreatedAt).Round(time.Millisecond)).
		Msg("report written")
}
