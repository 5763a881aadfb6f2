// internal/app/dispatcher.go
package app

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"padel_notifier/internal/domain/push"
)

var ErrNoTransport = errors.New("no transport configured for platform")

// DispatchReport summarises one fan-out.
type DispatchReport struct {
	Attempted  int
	Succeeded  int
	MessageIDs []string
	// Err aggregates the per-device *push.DispatchError values, nil when all succeeded.
	Err error
}

func (r DispatchReport) Failed() int {
	return r.Attempted - r.Succeeded
}

// Dispatcher delivers one title/body to many devices. A failing device never
// affects its siblings.
type Dispatcher interface {
	Dispatch(ctx context.Context, devices []push.Device, title, body string) DispatchReport
}

type DispatcherOptions struct {
	Concurrency      int
	SendTimeout      time.Duration
	AndroidChannelID string
}

type DispatcherImpl struct {
	transports map[push.Platform]push.Transport
	fallback   push.Transport
	opts       DispatcherOptions
	logger     logrus.FieldLogger
	metrics    Metrics
}

// NewDispatcher routes every platform to fallback until Route overrides it.
// fallback may be nil.
func NewDispatcher(fallback push.Transport, opts DispatcherOptions, logger logrus.FieldLogger, metrics Metrics) *DispatcherImpl {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &DispatcherImpl{
		transports: map[push.Platform]push.Transport{},
		fallback:   fallback,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}
}

// Route sends the platform's devices through t. Call before the first Dispatch.
func (d *DispatcherImpl) Route(platform push.Platform, t push.Transport) {
	d.transports[platform] = t
}

func (d *DispatcherImpl) transportFor(p push.Platform) push.Transport {
	if t, ok := d.transports[p]; ok {
		return t
	}
	return d.fallback
}

// Send delivers to one device. Failures are returned as *push.DispatchError.
func (d *DispatcherImpl) Send(ctx context.Context, device push.Device, title, body string) (string, error) {
	t := d.transportFor(device.Platform)
	if t == nil {
		return "", &push.DispatchError{Platform: device.Platform, Token: device.Token, Err: ErrNoTransport}
	}
	if d.opts.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.SendTimeout)
		defer cancel()
	}

	id, err := t.Send(ctx, push.Message{
		Device: device,
		Title:  title,
		Body:   body,
		Hints:  d.hintsFor(device.Platform),
	})
	if err != nil {
		return "", &push.DispatchError{Platform: device.Platform, Token: device.Token, Err: err}
	}
	return id, nil
}

func (d *DispatcherImpl) hintsFor(p push.Platform) push.Hints {
	switch p {
	case push.PlatformIOS:
		return push.Hints{Sound: "default"}
	case push.PlatformAndroid:
		return push.Hints{Sound: "default", ChannelID: d.opts.AndroidChannelID}
	}
	return push.Hints{}
}

func (d *DispatcherImpl) Dispatch(ctx context.Context, devices []push.Device, title, body string) DispatchReport {
	ids := make([]string, len(devices))
	errs := make([]error, len(devices))

	var g errgroup.Group
	g.SetLimit(d.opts.Concurrency)
	for i, device := range devices {
		i, device := i, device
		g.Go(func() error {
			ids[i], errs[i] = d.Send(ctx, device, title, body)
			return nil
		})
	}
	_ = g.Wait()

	report := DispatchReport{Attempted: len(devices)}
	var merr *multierror.Error
	for i, device := range devices {
		entry := d.logger.WithFields(logrus.Fields{
			"user_id":  device.UserID,
			"platform": device.Platform,
			"token":    push.Truncate(device.Token),
		})
		if errs[i] != nil {
			merr = multierror.Append(merr, errs[i])
			d.metrics.PushSent(device.Platform, false)
			entry.WithError(errs[i]).Warn("push failed")
			continue
		}
		report.Succeeded++
		report.MessageIDs = append(report.MessageIDs, ids[i])
		d.metrics.PushSent(device.Platform, true)
		entry.WithField("message_id", ids[i]).Debug("push sent")
	}
	report.Err = merr.ErrorOrNil()
	return report
}

// DryRunDispatcher logs what would be sent and reports every device as delivered.
type DryRunDispatcher struct {
	logger logrus.FieldLogger
}

func NewDryRunDispatcher(logger logrus.FieldLogger) *DryRunDispatcher {
	return &DryRunDispatcher{logger: logger}
}

func (d *DryRunDispatcher) Dispatch(_ context.Context, devices []push.Device, title, body string) DispatchReport {
	for _, device := range devices {
		d.logger.WithFields(logrus.Fields{
			"user_id":  device.UserID,
			"platform": device.Platform,
			"token":    push.Truncate(device.Token),
			"title":    title,
		}).Info("dry run: would push ", body)
	}
	return DispatchReport{Attempted: len(devices), Succeeded: len(devices)}
}
