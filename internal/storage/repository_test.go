package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(filepath.Join(t.TempDir(), "data", "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestGrantPermission_Idempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.GrantPermission(ctx, "g1", "setup", "r1"))
	require.NoError(t, repo.GrantPermission(ctx, "g1", "setup", "r1"))

	rules, err := repo.ListPermissions(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "setup", rules[0].CommandName)
	assert.Equal(t, "r1", rules[0].RoleID)
}

func TestRevokePermission_MissingRuleIsNoop(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.RevokePermission(ctx, "g1", "setup", "r1"))

	require.NoError(t, repo.GrantPermission(ctx, "g1", "setup", "r1"))
	require.NoError(t, repo.RevokePermission(ctx, "g1", "setup", "r1"))

	roles, err := repo.CommandRoles(ctx, "g1", "setup")
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestListPermissions_OrderedAndScopedToGuild(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.GrantPermission(ctx, "g1", "stop", "r2"))
	require.NoError(t, repo.GrantPermission(ctx, "g1", "setup", "r9"))
	require.NoError(t, repo.GrantPermission(ctx, "g1", "setup", "r1"))
	require.NoError(t, repo.GrantPermission(ctx, "g2", "setup", "r1"))

	rules, err := repo.ListPermissions(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, rules, 3)

	got := make([]string, 0, len(rules))
	for _, rule := range rules {
		assert.Equal(t, "g1", rule.GuildID)
		got = append(got, rule.CommandName+"/"+rule.RoleID)
	}
	assert.Equal(t, []string{"setup/r1", "setup/r9", "stop/r2"}, got)
}

func TestResetPermissions_OnlyTouchesGuild(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.GrantPermission(ctx, "g1", "setup", "r1"))
	require.NoError(t, repo.GrantPermission(ctx, "g1", "perm", "r2"))
	require.NoError(t, repo.GrantPermission(ctx, "g2", "setup", "r1"))

	removed, err := repo.ResetPermissions(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	rules, err := repo.ListPermissions(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, rules)

	other, err := repo.ListPermissions(ctx, "g2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestResetPermissions_ConcurrentGrants(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	const seeded, granted = 5, 40
	for n := 0; n < seeded; n++ {
		require.NoError(t, repo.GrantPermission(ctx, "g1", "setup", fmt.Sprintf("old-%d", n)))
	}

	var (
		wg      sync.WaitGroup
		removed int64
	)
	errs := make(chan error, granted+1)

	wg.Add(granted + 1)
	go func() {
		defer wg.Done()
		n, err := repo.ResetPermissions(ctx, "g1")
		removed = n
		errs <- err
	}()
	for n := 0; n < granted; n++ {
		go func(n int) {
			defer wg.Done()
			errs <- repo.GrantPermission(ctx, "g1", "msg", fmt.Sprintf("new-%d", n))
		}(n)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rules, err := repo.ListPermissions(ctx, "g1")
	require.NoError(t, err)

	// each grant landed wholly before the reset (and was removed by it) or
	// wholly after it (and survived); nothing older than the reset survives
	assert.EqualValues(t, seeded+granted, removed+int64(len(rules)))
	for _, r := range rules {
		assert.True(t, strings.HasPrefix(r.RoleID, "new-"), r.RoleID)
	}
}

func TestWarnings_AppendAndList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := &Warning{GuildID: "g1", UserID: "u1", Reason: "spam", ModeratorID: "m1",
		CreatedAt: time.Unix(1700000000, 0)}
	second := &Warning{GuildID: "g1", UserID: "u1", Reason: "caps", ModeratorID: "m2"}

	require.NoError(t, repo.CreateWarning(ctx, first))
	require.NoError(t, repo.CreateWarning(ctx, second))
	require.NoError(t, repo.CreateWarning(ctx, &Warning{GuildID: "g1", UserID: "u2", Reason: "x", ModeratorID: "m1"}))

	assert.Greater(t, second.ID, first.ID)

	warnings, err := repo.GetWarnings(ctx, "g1", "u1")
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	assert.Equal(t, "caps", warnings[0].Reason)
	assert.Equal(t, "spam", warnings[1].Reason)
	assert.Equal(t, int64(1700000000), warnings[1].CreatedAt.Unix())
}

func TestBindings_UpsertAndList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBinding(ctx, &MonitorBinding{GuildID: "g1", ChannelID: "c1", Enabled: true}))
	require.NoError(t, repo.UpsertBinding(ctx, &MonitorBinding{GuildID: "g1", ChannelID: "c1", Enabled: false}))
	require.NoError(t, repo.UpsertBinding(ctx, &MonitorBinding{GuildID: "g2", ChannelID: "c2", Enabled: true}))

	bindings, err := repo.ListBindings(ctx)
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.Equal(t, "g1", bindings[0].GuildID)
	assert.False(t, bindings[0].Enabled)
	assert.Equal(t, "c2", bindings[1].ChannelID)
	assert.True(t, bindings[1].Enabled)
}

func TestCommandRoles_QueryFailureWrapsErrStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepositoryWithDB(db)

	mock.ExpectQuery(`SELECT role_id FROM permissions`).
		WithArgs("g1", "setup").
		WillReturnError(errors.New("disk I/O error"))

	roles, err := repo.CommandRoles(context.Background(), "g1", "setup")
	require.Error(t, err)
	assert.Nil(t, roles)
	assert.ErrorIs(t, err, ErrStore)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPermissions_ExecFailureWrapsErrStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepositoryWithDB(db)

	mock.ExpectExec(`DELETE FROM permissions WHERE guild_id = \?`).
		WithArgs("g1").
		WillReturnError(errors.New("database is locked"))

	_, err = repo.ResetPermissions(context.Background(), "g1")
	assert.ErrorIs(t, err, ErrStore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommandRoles_ScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepositoryWithDB(db)

	rows := sqlmock.NewRows([]string{"role_id"}).AddRow("r1").AddRow("r2")
	mock.ExpectQuery(`SELECT role_id FROM permissions`).
		WithArgs("g1", "warn").
		WillReturnRows(rows)

	roles, err := repo.CommandRoles(context.Background(), "g1", "warn")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, roles)
	assert.NoError(t, mock.ExpectationsWereMet())
}
