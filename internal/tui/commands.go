package tui

import (
	"context"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/k-tsurumaki/quilldeck-cli/internal/api"
	"github.com/k-tsurumaki/quilldeck-cli/internal/export"
	"github.com/k-tsurumaki/quilldeck-cli/internal/session"
	"github.com/k-tsurumaki/quilldeck-cli/internal/workflow"
)

const (
	probeTimeout   = 10 * time.Second
	authTimeout    = 30 * time.Second
	uploadTimeout  = 2 * time.Minute
	summaryTimeout = 2 * time.Minute
)

// connectivityRetryDelay is the fixed pause before re-probing an
// unreachable backend. No growth, no cap: the loop runs until the
// backend answers or the monitor is superseded.
const connectivityRetryDelay = 5 * time.Second

func probeJob(client *api.Client, generation int) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, probeTimeout)
		defer cancel()
		if _, cerr := client.Health(ctx); cerr != nil {
			return probeResultMsg{generation: generation, status: connectivityStatusFor(cerr)}, cerr
		}
		return probeResultMsg{generation: generation, status: connectivityOK}, nil
	}
}

// connectivityStatusFor maps the failure classification onto the
// monitor's state machine: only an unreachable backend re-probes
// automatically; a server-reported error stays terminal.
func connectivityStatusFor(cerr *api.Error) connectivityStatus {
	if cerr != nil && cerr.Kind == api.KindUnreachable {
		return connectivityUnreachable
	}
	return connectivityServerError
}

func probeRetryCmd(generation int) tea.Cmd {
	return tea.Tick(connectivityRetryDelay, func(time.Time) tea.Msg {
		return probeRetryMsg{generation: generation}
	})
}

func authJob(client *api.Client, register bool, email, password, name string, token uint64) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, authTimeout)
		defer cancel()
		var (
			userID string
			cerr   *api.Error
		)
		if register {
			userID, cerr = client.Register(ctx, email, password, name)
		} else {
			userID, cerr = client.Login(ctx, email, password)
		}
		if cerr != nil {
			return authResultMsg{token: token, err: cerr}, cerr
		}
		return authResultMsg{token: token, userID: userID}, nil
	}
}

func uploadJob(client *api.Client, file workflow.SelectedFile, attempt string, epoch uint64, updates chan<- int) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		defer close(updates)
		ctx, cancel := context.WithTimeout(parent, uploadTimeout)
		defer cancel()

		f, err := os.Open(file.Path)
		if err != nil {
			cerr := api.Validation("cannot open " + file.Name + ": " + err.Error())
			return uploadResultMsg{attempt: attempt, epoch: epoch, fileName: file.Name, err: cerr}, cerr
		}
		defer f.Close()

		push := func(percent int) {
			select {
			case updates <- percent:
			default: // drop rather than stall the transfer
			}
		}
		documentID, cerr := client.Upload(ctx, file.Name, f, file.Size, push)
		if cerr != nil {
			return uploadResultMsg{attempt: attempt, epoch: epoch, fileName: file.Name, err: cerr}, cerr
		}
		return uploadResultMsg{attempt: attempt, epoch: epoch, fileName: file.Name, documentID: documentID}, nil
	}
}

// waitForUploadProgress relays one progress delta from the transfer
// goroutine into the event loop; the handler re-arms it until the
// channel closes.
func waitForUploadProgress(attempt string, updates <-chan int) tea.Cmd {
	return func() tea.Msg {
		percent, ok := <-updates
		if !ok {
			return nil
		}
		return uploadProgressMsg{attempt: attempt, percent: percent, updates: updates}
	}
}

func summaryJob(client *api.Client, doc session.Document, length workflow.Length, attempt string, epoch uint64) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, summaryTimeout)
		defer cancel()
		result, cerr := client.GenerateSummary(ctx, doc.ID, string(length))
		if cerr != nil {
			return summaryResultMsg{attempt: attempt, epoch: epoch, documentID: doc.ID, err: cerr}, cerr
		}
		return summaryResultMsg{
			attempt:    attempt,
			epoch:      epoch,
			documentID: doc.ID,
			content:    result.Content,
			keywords:   result.Keywords,
		}, nil
	}
}

func exportJob(dir string, rec export.Record) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		path, err := export.Write(dir, rec)
		if err != nil {
			return exportResultMsg{documentID: rec.DocumentID, err: err}, err
		}
		return exportResultMsg{documentID: rec.DocumentID, path: path}, nil
	}
}
