package main

import (
	"fmt"
	"time"

	"github.com/fentz26/taskmaster/internal/audit"
	"github.com/fentz26/taskmaster/internal/config"
	"github.com/fentz26/taskmaster/internal/controlplane"
	"github.com/fentz26/taskmaster/internal/csvfile"
	"github.com/fentz26/taskmaster/internal/engine"
	"github.com/fentz26/taskmaster/internal/notify"
	"github.com/fentz26/taskmaster/internal/store"
)

// backend is the storage a command works against. The state database always
// exists; tasks live either in it or in a CSV file.
type backend struct {
	state   *store.Store
	catalog controlplane.Catalog
	repo    engine.Repository
	pdr     *audit.PDRWriter
	origin  string
}

func openBackend(c *config.Config) (*backend, error) {
	state, err := store.New(c.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	b := &backend{state: state, pdr: audit.NewPDRWriter(state)}
	switch c.Storage.Driver {
	case config.DriverCSV:
		f := csvfile.New(c.Storage.CSVPath)
		b.catalog, b.repo = f, f
		b.origin = "csv: " + f.Path()
	default:
		b.catalog, b.repo = state, state
		b.origin = "sqlite: " + c.Storage.SQLitePath
	}
	return b, nil
}

func (b *backend) Close() error {
	return b.state.Close()
}

// service builds the catalog service. runner may be nil.
func (b *backend) service(runner controlplane.Runner) *controlplane.Service {
	return controlplane.NewService(b.catalog, b.pdr, runner, time.Local).
		WithInbox(b.state).
		WithRuns(b.state).
		WithLogger(log)
}

// dispatcher fans a firing out to every enabled channel. The log channel is
// always on.
func (b *backend) dispatcher(c *config.Config) (notify.Multi, error) {
	d := notify.Multi{notify.NewLog(log)}
	if c.Inbox.Enabled {
		d = append(d, notify.NewInbox(b.state, c.Inbox.Group))
	}
	if c.Email.Enabled {
		d = append(d, notify.NewEmail(notify.EmailConfig{
			To:           c.Email.To,
			From:         c.Email.From,
			Host:         c.Email.Host,
			Port:         c.Email.Port,
			Username:     c.Email.Username,
			Password:     c.Email.Password,
			SendInterval: c.Email.SendInterval,
		}, log))
	}
	if c.Hook.Enabled {
		h, err := notify.NewHook(c.Hook.Command, "", c.Hook.Timeout)
		if err != nil {
			return nil, err
		}
		d = append(d, h)
	}
	return d, nil
}

// processor builds the dispatch loop over this backend.
func (b *backend) processor(c *config.Config, dryRun bool) (*engine.Processor, error) {
	d, err := b.dispatcher(c)
	if err != nil {
		return nil, err
	}
	return engine.New(b.repo, d,
		engine.WithLogger(log),
		engine.WithRecorder(b.pdr),
		engine.WithHistory(b.state),
		engine.WithDryRun(dryRun),
	), nil
}
