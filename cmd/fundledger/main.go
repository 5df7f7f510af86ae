/*
main.go - Application entry point

PURPOSE:
  Runs the fundledger command line. All wiring lives in commands/.

COMMANDS:
  serve     HTTP API and xlsx export
  export    Write the workbook to a file
  worker    AMQP consumer + Google Sheets mirror
  migrate   Apply schema migrations and exit

ENVIRONMENT:
  Read from .env and the process environment, see config/config.go.

EXAMPLES:
  # Run with file database
  DB_PATH=./data/fund.db fundledger serve

  # Export January in Korean
  LEDGER_LOCALE=ko fundledger export --start 2024-01-01 --end 2024-01-31
*/
package main

import (
	"os"

	"github.com/warp/fund-ledger/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
