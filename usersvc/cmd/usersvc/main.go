package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/tasktracker/usersvc/db/gorm"
	"github.com/ichigozero/tasktracker/usersvc/pkg/userservice"
	"github.com/ichigozero/tasktracker/usersvc/seed"
	"golang.org/x/crypto/bcrypt"
)

// usersvc provisions accounts in the identity database. Accounts are
// either read from a seed file or given on the command line.
func main() {
	fs := flag.NewFlagSet("usersvc", flag.ExitOnError)
	var (
		databaseURL = fs.String("database.url", getEnv("DATABASE_URL", ""), "Database URL")
		seedFile    = fs.String("seed.file", getEnv("SEED_FILE", ""), "YAML file with accounts to create")
		bcryptCost  = fs.Int("bcrypt.cost", getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost), "bcrypt work factor")
		userName    = fs.String("user.name", "", "name of a single account to create")
		password    = fs.String("user.password", getEnv("USER_PASSWORD", ""), "password of the single account")
	)

	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	fs.Parse(os.Args[1:])

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	if *seedFile == "" && *userName == "" {
		fs.Usage()
		os.Exit(2)
	}

	db, err := gorm.Open(*databaseURL)
	if err != nil {
		logger.Log("during", "Open", "err", err)
		os.Exit(1)
	}

	service, err := userservice.New(gorm.NewUserRepository(db), *bcryptCost, logger)
	if err != nil {
		logger.Log("err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var file seed.File
	if *seedFile != "" {
		file, err = seed.Load(*seedFile)
		if err != nil {
			logger.Log("during", "Load", "file", *seedFile, "err", err)
			os.Exit(1)
		}
	}
	if *userName != "" {
		file.Users = append(file.Users, seed.Account{UserName: *userName, Password: *password})
	}

	created, err := seed.Apply(ctx, service, file)
	logger.Log("created", created, "requested", len(file.Users), "err", err)
	if err != nil {
		os.Exit(1)
	}
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
