package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/k-tsurumaki/quilldeck-cli/internal/api"
	"github.com/k-tsurumaki/quilldeck-cli/internal/tui"
)

func main() {
	// Optional .env next to the binary for local development.
	_ = godotenv.Load()

	defaultServer := os.Getenv("QUILLDECK_SERVER")
	if defaultServer == "" {
		defaultServer = api.DefaultBaseURL
	}
	server := flag.String("server", defaultServer, "QuillDeck server base URL")
	exportDir := flag.String("export-dir", filepath.Join(".", "summaries"), "directory for exported summary files")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	debug := flag.Bool("debug", os.Getenv("QUILLDECK_DEBUG") != "", "write job logs to quilldeck.log")
	flag.Parse()

	if *debug {
		f, err := tea.LogToFile("quilldeck.log", "quilldeck")
		if err != nil {
			fmt.Println("failed to open log file:", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		// Job telemetry would otherwise land on stderr and tear the UI.
		log.SetOutput(io.Discard)
	}

	absExport, err := filepath.Abs(*exportDir)
	if err != nil {
		fmt.Println("failed to resolve export directory:", err)
		os.Exit(1)
	}

	opts := []tea.ProgramOption{}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			API:       api.New(*server, nil),
			ExportDir: absExport,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}
