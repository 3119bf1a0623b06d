package users

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-io/gatehouse/pkg/ims"
	"github.com/gatehouse-io/gatehouse/pkg/observability"
)

type recordingNotifier struct {
	welcomed []int64
	err      error
}

func (n *recordingNotifier) SendWelcome(_ context.Context, user *User) error {
	if n.err != nil {
		return n.err
	}
	n.welcomed = append(n.welcomed, user.ID)
	return nil
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func TestProvisionRequiresEmail(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := NewProvisioner(NewStore(db, "sqlite3"), &recordingNotifier{}, testLogger())
	_, err = p.Provision(context.Background(), &ims.Profile{Name: "No Email"})
	assert.Error(t, err)
}

func TestProvisionCreatesNewUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM admin_users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectQuery("INSERT INTO admin_users").
		WithArgs("alice", "alice@example.com", "Alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	notifier := &recordingNotifier{}
	p := NewProvisioner(NewStore(db, "sqlite3"), notifier, testLogger())

	user, err := p.Provision(context.Background(), &ims.Profile{Email: "alice@example.com", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, "alice", user.Username, "username derives from the email local part")
	assert.Equal(t, []int64{3}, notifier.welcomed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionWelcomeFailureDoesNotFail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM admin_users WHERE email").
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectQuery("INSERT INTO admin_users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	notifier := &recordingNotifier{err: errors.New("smtp down")}
	p := NewProvisioner(NewStore(db, "sqlite3"), notifier, testLogger())

	user, err := p.Provision(context.Background(), &ims.Profile{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
}

func TestProvisionExistingUserTouchesLogin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM admin_users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(7), "alice", "alice@example.com", "Alice", true, now, now, nil))
	mock.ExpectExec("UPDATE admin_users SET last_login_at").
		WithArgs(sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	notifier := &recordingNotifier{}
	p := NewProvisioner(NewStore(db, "sqlite3"), notifier, testLogger())

	user, err := p.Provision(context.Background(), &ims.Profile{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Empty(t, notifier.welcomed, "no welcome for returning users")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionDeactivatedUserIsRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM admin_users WHERE email").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(7), "alice", "alice@example.com", "Alice", false, now, now, nil))

	p := NewProvisioner(NewStore(db, "sqlite3"), &recordingNotifier{}, testLogger())
	_, err = p.Provision(context.Background(), &ims.Profile{Email: "alice@example.com"})
	assert.Error(t, err)
}

func TestUsernameFromEmail(t *testing.T) {
	assert.Equal(t, "alice", usernameFromEmail("alice@example.com"))
	assert.Equal(t, "no-at-sign", usernameFromEmail("no-at-sign"))
	assert.Equal(t, "@leading", usernameFromEmail("@leading"))
}
