package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/semmidev/custos/internal/domain"
)

// Transport delivers a composed notification. Implementations that address
// recipients out of band (chat IDs) may ignore the address list.
type Transport interface {
	Name() string
	Send(ctx context.Context, to []string, subject, body string, html bool) error
}

// Dispatcher composes one outcome message per target and fans it out to the
// configured transports. The orchestrator calls it exactly once per target.
type Dispatcher struct {
	transports []Transport
	recipients []string
	appName    string
	timeout    time.Duration
	logger     Logger
}

func NewDispatcher(transports []Transport, recipients []string, appName string, timeout time.Duration, logger Logger) *Dispatcher {
	return &Dispatcher{
		transports: transports,
		recipients: recipients,
		appName:    appName,
		timeout:    timeout,
		logger:     logger,
	}
}

func (d *Dispatcher) NotifySuccess(ctx context.Context, target domain.Target, artifact *domain.Artifact) error {
	subject := fmt.Sprintf("[%s] Backup Success: %s (%s)", d.appName, target.Database, target.Engine)
	return d.send(ctx, subject, d.successBody(target, artifact))
}

func (d *Dispatcher) NotifyFailure(ctx context.Context, target domain.Target, failure *domain.Failure) error {
	subject := fmt.Sprintf("[%s] Backup Failed: %s (%s)", d.appName, target.Database, target.Engine)
	return d.send(ctx, subject, d.failureBody(target, failure))
}

func (d *Dispatcher) send(ctx context.Context, subject, body string) error {
	if len(d.transports) == 0 {
		d.logger.Warnf("no notification transports configured, skipping: %s", subject)
		return nil
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var errs []error
	for _, transport := range d.transports {
		if err := transport.Send(ctx, d.recipients, subject, body, true); err != nil {
			d.logger.Errorf("notification via %s failed: %v", transport.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", transport.Name(), err))
			continue
		}
		d.logger.Infof("notification sent via %s: %s", transport.Name(), subject)
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) successBody(target domain.Target, artifact *domain.Artifact) string {
	return fmt.Sprintf(`<html>
<body>
<h2 style="color: #388e3c;">Backup Completed Successfully</h2>
<p>Backup for <strong>%s</strong> completed.</p>
<ul>
<li>Engine: %s</li>
<li>Server: %s:%d</li>
<li>File: %s</li>
<li>Size: %.2f MB</li>
<li>Created: %s</li>
</ul>
<hr>
<p><small>This is an automated message from %s.</small></p>
</body>
</html>`,
		target.Database,
		target.Engine,
		target.Host, target.Port,
		filepath.Base(artifact.FilePath),
		float64(artifact.SizeBytes)/(1024*1024),
		artifact.CreatedAt.Format("2006-01-02 15:04:05"),
		d.appName)
}

func (d *Dispatcher) failureBody(target domain.Target, failure *domain.Failure) string {
	return fmt.Sprintf(`<html>
<body>
<h2 style="color: #d32f2f;">Backup Failed</h2>
<p>Backup for <strong>%s</strong> (%s) on %s:%d failed.</p>
<p><strong>Stage:</strong> %s</p>
<p><strong>Error:</strong> %s</p>
<hr>
<p><small>This is an automated message from %s.</small></p>
</body>
</html>`,
		target.Database,
		target.Engine,
		target.Host, target.Port,
		failure.Stage,
		failure.Error(),
		d.appName)
}
