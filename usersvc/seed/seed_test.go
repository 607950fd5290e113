package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ichigozero/tasktracker/usersvc"
	"github.com/ichigozero/tasktracker/usersvc/inmem"
	"github.com/ichigozero/tasktracker/usersvc/pkg/userservice"
	"github.com/ichigozero/tasktracker/usersvc/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const sample = `
users:
  - userName: alice
    password: "1234"
  - userName: bob
    password: "5678"
`

func TestDecode(t *testing.T) {
	file, err := seed.Decode(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, []seed.Account{
		{UserName: "alice", Password: "1234"},
		{UserName: "bob", Password: "5678"},
	}, file.Users)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := seed.Decode(strings.NewReader("users:\n  - name: alice\n"))
	assert.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	file, err := seed.Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, file.Users)
}

func TestLoadAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	file, err := seed.Load(path)
	require.NoError(t, err)

	repo := inmem.NewUserRepository()
	svc, err := userservice.NewBasicService(repo, bcrypt.MinCost)
	require.NoError(t, err)

	created, err := seed.Apply(context.Background(), svc, file)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = seed.Apply(context.Background(), svc, file)
	require.NoError(t, err)
	assert.Zero(t, created)

	user, err := svc.Verify(context.Background(), "bob", "5678")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.UserName)
}

func TestApplyStopsOnInvalidAccount(t *testing.T) {
	svc, err := userservice.NewBasicService(inmem.NewUserRepository(), bcrypt.MinCost)
	require.NoError(t, err)

	file := seed.File{Users: []seed.Account{{UserName: "alice", Password: "1"}, {UserName: "", Password: "2"}}}
	created, err := seed.Apply(context.Background(), svc, file)
	assert.ErrorIs(t, err, usersvc.ErrInvalidArgument)
	assert.Equal(t, 1, created)
}
