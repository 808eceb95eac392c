package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/adamgarcia4/goLearning/ndnagg/emu"
	"github.com/adamgarcia4/goLearning/ndnagg/logger"
)

var errNotReady = errors.New("not ready")

// awaitProcess waits until p is ready: still running after one probe
// interval, and with the ready pattern in its log when one is configured.
// A process that already exited with status 0 ran to completion and counts
// as ready.
func (o *Orchestrator) awaitProcess(ctx context.Context, stage Stage, p *emu.Process) error {
	if err := wait(ctx, o.cfg.ProbeInterval); err != nil {
		return err
	}

	return o.poll(ctx, stage, p.Host(), func() error {
		done, err := finished(stage, p)
		if err != nil {
			return err
		}
		if done {
			l := logger.Host(p.Host())
			l.Info().Str("stage", stage.String()).Msgf("%q completed", p.Command())
			return nil
		}
		if o.pattern == nil {
			return nil
		}
		data, err := os.ReadFile(p.LogPath())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if !o.pattern.Match(data) {
			return errNotReady
		}
		return nil
	})
}

// awaitProbe runs probe on the host until it succeeds. p, when given, must
// not fail meanwhile.
func (o *Orchestrator) awaitProbe(ctx context.Context, stage Stage, h emu.Host, p *emu.Process, probe string) error {
	return o.poll(ctx, stage, h.Name(), func() error {
		if p != nil {
			if _, err := finished(stage, p); err != nil {
				return err
			}
		}
		if out, err := h.Run(ctx, probe); err != nil {
			return fmt.Errorf("probe %q: %w: %s", probe, err, strings.TrimSpace(out))
		}
		return nil
	})
}

// finished reports whether p has exited. A clean exit is a completed run;
// a failed one is a permanent ErrLaunchFailed.
func finished(stage Stage, p *emu.Process) (bool, error) {
	if p.Alive() {
		return false, nil
	}
	if err := p.Err(); err != nil {
		return true, backoff.Permanent(fmt.Errorf("%w: %s on %s exited before ready: %v", ErrLaunchFailed, stage, p.Host(), err))
	}
	return true, nil
}

// poll retries op with exponential backoff until it succeeds, fails
// permanently, or ReadinessTimeout passes.
func (o *Orchestrator) poll(ctx context.Context, stage Stage, host string, op backoff.Operation) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.cfg.ProbeInterval
	b.MaxInterval = 8 * o.cfg.ProbeInterval
	b.MaxElapsedTime = o.cfg.ReadinessTimeout

	err := backoff.Retry(op, backoff.WithContext(b, ctx))
	switch {
	case err == nil:
		l := logger.Host(host)
		l.Debug().Str("stage", stage.String()).Msg("ready")
		return nil
	case errors.Is(err, ErrLaunchFailed):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return fmt.Errorf("%w: %s on %s after %s: %v", ErrReadinessTimeout, stage, host, o.cfg.ReadinessTimeout, err)
	}
}
