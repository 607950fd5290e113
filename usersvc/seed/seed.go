// Package seed loads initial accounts from a YAML file and registers the
// ones that do not exist yet.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ichigozero/tasktracker/usersvc"
	"github.com/ichigozero/tasktracker/usersvc/pkg/userservice"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout:
//
//	users:
//	  - userName: alice
//	    password: "1234"
type File struct {
	Users []Account `yaml:"users"`
}

type Account struct {
	UserName string `yaml:"userName"`
	Password string `yaml:"password"`
}

func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	return Decode(f)
}

func Decode(r io.Reader) (File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}
	return file, nil
}

// Apply registers every account of file. Accounts that already exist are
// skipped, so applying the same file twice is harmless. It returns the
// number of accounts created.
func Apply(ctx context.Context, svc userservice.Service, file File) (int, error) {
	var created int
	for _, a := range file.Users {
		_, err := svc.Register(ctx, a.UserName, a.Password)
		switch {
		case errors.Is(err, usersvc.ErrUserExists):
			continue
		case err != nil:
			return created, fmt.Errorf("register %q: %w", a.UserName, err)
		}
		created++
	}
	return created, nil
}
