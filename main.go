package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"foosrank/internal/back"
	"foosrank/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// Version holds the build-time version string.
var Version = "unknown" // nolint:gochecknoglobals

func main() {
	flag.Parse()

	switch flag.Arg(0) { // nolint, TODO
	case "version":
		fmt.Fprintf(os.Stdout, "Foosrank %s\n", Version)
	case "migrate":
		if err := runMigrations(); err != nil {
			log.Fatalf("error: %s", err)
		}
	case "serve":
		if err := serve(newBack()); err != nil {
			log.Fatalf("error: %s", err)
		}
	case "dev:fixtures":
		if err := loadFixtures(newBack()); err != nil {
			log.Fatalf("error: %s", err)
		}
	case "help":
		fmt.Fprint(os.Stdout, help())
		return
	default:
		fmt.Fprint(os.Stderr, help())
		os.Exit(1)
	}
}

func newBack() *back.Back {
	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		log.Fatalf("error: unable to load configuration: %s", err)
	}

	b, err := back.New("sqlite3", sqlDSN(conf), conf)
	if err != nil {
		log.Fatalf("error: unable to create Back: %s", err)
	}

	return b
}

func sqlDSN(conf *config.Config) string {
	if conf.SQLDSN != "" {
		return conf.SQLDSN
	}

	return "./foosrank.db"
}

func help() string {
	return fmt.Sprintf(`
Foosrank ranks foosball players and ad-hoc teams from head-to-head match
results using a Bayesian (TrueSkill-style) skill model.

Usage: %[1]s COMMAND [ARGS…]

COMMANDS
    dev:fixtures create default data for quick testing during development
    help         display this help
    migrate      bring the database schema up to date
    serve        run the engine dæmon until SIGINT/SIGTERM
    version      display the current version
`,
		os.Args[0],
	)
}
