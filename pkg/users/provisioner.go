package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/gatehouse-io/gatehouse/pkg/ims"
	"github.com/gatehouse-io/gatehouse/pkg/observability"
)

// Notifier delivers the welcome notification for newly provisioned admin
// users. Delivery is an external concern; failures never fail provisioning.
type Notifier interface {
	SendWelcome(ctx context.Context, user *User) error
}

// LogNotifier is the default Notifier: it records the welcome event in the
// log instead of sending mail.
type LogNotifier struct {
	Logger *observability.Logger
}

// SendWelcome logs the welcome event.
func (n *LogNotifier) SendWelcome(_ context.Context, user *User) error {
	n.Logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("welcome notification for new admin user")
	return nil
}

// Provisioner resolves a local admin user from an IMS profile, creating the
// account on first login (JIT provisioning).
type Provisioner struct {
	store    *Store
	notifier Notifier
	logger   *observability.Logger
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(store *Store, notifier Notifier, logger *observability.Logger) *Provisioner {
	return &Provisioner{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Provision returns the local user for profile, creating one when the email
// has never logged in before. Existing users get their last-login timestamp
// refreshed. The profile email is the identity-binding key.
func (p *Provisioner) Provision(ctx context.Context, profile *ims.Profile) (*User, error) {
	if profile.Email == "" {
		return nil, fmt.Errorf("profile has no email, cannot resolve a local user")
	}

	user, err := p.store.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		username := usernameFromEmail(profile.Email)
		user, err = p.store.Create(ctx, username, profile.Email, profile.Name)
		if err != nil {
			return nil, err
		}
		p.logger.WithField("user_id", user.ID).Info("provisioned new admin user")

		if err := p.notifier.SendWelcome(ctx, user); err != nil {
			p.logger.WithError(err).Error("failed to send welcome notification")
		}
		return user, nil
	}

	if !user.IsActive {
		return nil, fmt.Errorf("user %s is deactivated", profile.Email)
	}
	if err := p.store.TouchLogin(ctx, user.ID); err != nil {
		p.logger.WithError(err).Error("failed to record login time")
	}
	return user, nil
}

// usernameFromEmail derives a username from the local part of an email
// address.
func usernameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
