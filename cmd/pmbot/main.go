package main

import (
	"fmt"
	"os"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/logger"
)

const version = "1.0.0"
const logo = "🤖"

var globalConfigPathOverride string

func main() {
	globalConfigPathOverride = detectConfigPathFromArgs(os.Args)

	for _, arg := range os.Args {
		if arg == "--debug" || arg == "-d" {
			logger.SetLevel(logger.DEBUG)
			break
		}
	}

	os.Args = normalizeCLIArgs(os.Args)

	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "serve":
		serveCmd()
	case "send-now":
		sendNowCmd()
	case "test-sheets":
		testSheetsCmd()
	case "test-waha":
		testWahaCmd()
	case "groups":
		groupsCmd()
	case "init":
		initCmd()
	case "version", "--version", "-v":
		fmt.Printf("%s pmbot v%s\n", logo, version)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printHelp()
		os.Exit(1)
	}
}
