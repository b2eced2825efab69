package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"code.cloudfoundry.org/clock"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/testcentral/outpost/internal/config"
	"github.com/testcentral/outpost/internal/models"
	"github.com/testcentral/outpost/pkg/credentials"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
	"github.com/testcentral/outpost/pkg/hostinfo"
	"github.com/testcentral/outpost/pkg/inventory"
)

// CentralClient is the part of the Test Central API the outpost uses.
type CentralClient interface {
	Ping(ctx context.Context) error
	Authenticate(ctx context.Context, ssoPath, email, password string) (*models.Session, error)
	Register(ctx context.Context, registerPath string, reg models.Registration, token string) error
}

type HostDiscoveryFunc func() (hostinfo.Identity, error)

// Registrar performs the startup handshake with Test Central: reachability
// check, silo check, login and registration.
type Registrar struct {
	cfg      config.Configuration
	client   CentralClient
	sessions credentials.Store
	lookup   *inventory.Lookup
	clock    clock.Clock
	discover HostDiscoveryFunc
	backoff  wait.Backoff
	logger   *zap.SugaredLogger
}

func NewRegistrar(cfg config.Configuration, client CentralClient, sessions credentials.Store, lookup *inventory.Lookup, clk clock.Clock) *Registrar {
	return &Registrar{
		cfg:      cfg,
		client:   client,
		sessions: sessions,
		lookup:   lookup,
		clock:    clk,
		discover: hostinfo.Discover,
		backoff: wait.Backoff{
			Duration: time.Second,
			Factor:   2,
			Jitter:   0.1,
			Steps:    max(cfg.Central.Retries, 1),
			Cap:      30 * time.Second,
		},
		logger: zap.S().Named("registrar"),
	}
}

func (r *Registrar) WithHostDiscovery(fn HostDiscoveryFunc) *Registrar {
	r.discover = fn
	return r
}

func (r *Registrar) WithBackoff(b wait.Backoff) *Registrar {
	r.backoff = b
	return r
}

// Register runs the handshake and returns the session used. Runs accepted
// afterwards carry its token.
func (r *Registrar) Register(ctx context.Context) (*models.Session, *models.Registration, error) {
	if err := r.waitForCentral(ctx); err != nil {
		return nil, nil, err
	}

	if err := r.checkSilo(); err != nil {
		return nil, nil, err
	}

	reg, err := r.registration()
	if err != nil {
		return nil, nil, err
	}

	session, stored, err := r.session(ctx)
	if err != nil {
		return nil, nil, err
	}

	err = r.client.Register(ctx, r.cfg.Central.RegisterPath, *reg, session.Token)

	var centralErr *srvErrors.CentralClientError
	if stored && errors.As(err, &centralErr) && centralErr.StatusCode == http.StatusUnauthorized {
		// the stored session was revoked; log in again once
		r.logger.Infow("stored session rejected, logging in again")
		if derr := r.sessions.Delete(); derr != nil {
			r.logger.Warnw("failed to delete stored session", "error", derr)
		}
		if session, err = r.login(ctx); err != nil {
			return nil, nil, err
		}
		err = r.client.Register(ctx, r.cfg.Central.RegisterPath, *reg, session.Token)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("registering outpost: %w", err)
	}

	r.logger.Infow("outpost registered", "name", reg.Name, "silo", reg.Silo, "status_url", reg.StatusURL)
	return session, reg, nil
}

func (r *Registrar) waitForCentral(ctx context.Context) error {
	var lastErr error
	err := wait.ExponentialBackoffWithContext(ctx, r.backoff, func(ctx context.Context) (bool, error) {
		if lastErr = r.client.Ping(ctx); lastErr != nil {
			r.logger.Warnw("test central not reachable", "url", r.cfg.Central.URL, "error", lastErr)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		if lastErr != nil {
			return fmt.Errorf("test central unreachable: %w", lastErr)
		}
		return fmt.Errorf("test central unreachable: %w", err)
	}
	return nil
}

func (r *Registrar) checkSilo() error {
	silos, err := r.lookup.Silos()
	if err != nil {
		return fmt.Errorf("listing silos: %w", err)
	}
	if !slices.Contains(silos, r.cfg.Outpost.Silo) {
		return srvErrors.NewValidationError("silo", fmt.Sprintf("%q is not a silo of %s, please check the silo name", r.cfg.Outpost.Silo, r.lookup.Root()))
	}
	return nil
}

// session returns the stored session when still usable, a fresh one otherwise.
// stored tells which one it is.
func (r *Registrar) session(ctx context.Context) (*models.Session, bool, error) {
	s, err := r.sessions.Load()
	switch {
	case err == nil && credentials.Usable(s, r.clock.Now()):
		return s, true, nil
	case err != nil && !errors.Is(err, credentials.ErrNotFound):
		r.logger.Warnw("ignoring unreadable stored session", "path", r.cfg.Central.SessionFile, "error", err)
	}

	s, err = r.login(ctx)
	return s, false, err
}

func (r *Registrar) login(ctx context.Context) (*models.Session, error) {
	if r.cfg.Central.Email == "" || r.cfg.Central.Password == "" {
		return nil, srvErrors.NewSessionNotFoundError()
	}

	s, err := r.client.Authenticate(ctx, r.cfg.Central.SSOPath, r.cfg.Central.Email, r.cfg.Central.Password)
	if err != nil {
		return nil, fmt.Errorf("logging in to test central: %w", err)
	}

	if err := r.sessions.Save(*s); err != nil {
		r.logger.Warnw("failed to store session", "error", err)
	}
	return s, nil
}

func (r *Registrar) registration() (*models.Registration, error) {
	id, err := r.discover()
	if err != nil && !(errors.Is(err, hostinfo.ErrNoAddress) && r.cfg.Outpost.ExternalHost != "") {
		return nil, fmt.Errorf("discovering host: %w", err)
	}

	name := r.cfg.Outpost.Name
	if name == "" {
		name = id.Hostname
	}

	base := r.cfg.Outpost.ExternalHost
	if base == "" {
		scheme := "http"
		if r.cfg.Server.TLSEnabled {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(id.IP, strconv.Itoa(r.cfg.Server.HTTPPort)))
	}

	return &models.Registration{
		Name:      name,
		Silo:      r.cfg.Outpost.Silo,
		IP:        id.IP,
		StatusURL: base + "/rest/v1/status?silo=" + url.QueryEscape(r.cfg.Outpost.Silo),
		ExecURL:   base + "/rest/v1/execute",
	}, nil
}
