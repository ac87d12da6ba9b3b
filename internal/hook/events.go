package hook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/canonical/ubuntu-pro-client/internal/classify"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
	"github.com/canonical/ubuntu-pro-client/internal/messages"
	"github.com/canonical/ubuntu-pro-client/internal/system"
)

// Advisor prints Ubuntu Pro advisories for install events.
type Advisor struct {
	Classifier *classify.Classifier
	// LoadCache opens the live package cache for pre-prompt advisories.
	// When nil or failing, the event snapshot is used instead.
	LoadCache func() (classify.Source, error)

	Layout        messages.Layout
	ExpiredNotice string // notice file present while the contract is expired
	PromoFlag     string
	OSRelease     string
	CloudID       string

	Out io.Writer

	// Filled in while handling, for the run record.
	Counts  classify.Counts
	Lists   classify.Lists
	Expired []string
}

// HandleEvent implements Handler.
func (a *Advisor) HandleEvent(ctx context.Context, method string, params json.RawMessage) error {
	switch method {
	case MethodStatistics:
		return a.statistics(params)
	case MethodPrePrompt:
		return a.prePrompt(params)
	case MethodPost:
		return a.post()
	}
	return nil
}

func (a *Advisor) statistics(params json.RawMessage) error {
	snap, err := classify.ParseSnapshot(params)
	if err != nil {
		return err
	}
	a.Counts = a.Classifier.CountsFromSnapshot(snap)
	if msg := messages.CountMessage(a.Counts); msg != "" {
		fmt.Fprintln(a.Out, msg)
	}
	return nil
}

func (a *Advisor) prePrompt(params json.RawMessage) error {
	snap, snapErr := classify.ParseSnapshot(params)
	if snapErr != nil {
		logger.Debug("pre-prompt snapshot unusable", "error", snapErr)
	}

	lists, err := a.liveLists()
	if err != nil {
		logger.Debug("live cache unavailable, using snapshot", "error", err)
		if snap != nil {
			lists = a.Classifier.ListsFromSnapshot(snap)
		}
	}
	a.Lists = lists

	if !lists.Empty() {
		ctx := system.DetectContext(a.OSRelease, a.CloudID)
		if len(lists.Infra) > 0 {
			fmt.Fprint(a.Out, messages.Advisory(classify.TagESMInfra, lists.Infra, ctx))
		} else {
			fmt.Fprint(a.Out, messages.Advisory(classify.TagESMApps, lists.Apps, ctx))
		}
	}

	a.printFile(a.Layout.Path(messages.AptNewsFile))

	if a.ExpiredNotice != "" && exists(a.ExpiredNotice) && snap != nil {
		a.Expired = classify.ProPackagesFromSnapshot(snap)
		fmt.Fprint(a.Out, messages.ExpiredNotice(a.Expired))
	}
	return snapErr
}

func (a *Advisor) liveLists() (classify.Lists, error) {
	if a.LoadCache == nil {
		return classify.Lists{}, errors.New("no live cache")
	}
	src, err := a.LoadCache()
	if err != nil {
		return classify.Lists{}, err
	}
	return a.Classifier.ForAdvisory(src), nil
}

func (a *Advisor) post() error {
	if a.PromoFlag != "" && exists(a.PromoFlag) {
		fmt.Fprintln(a.Out, messages.PromoLine)
	}
	return nil
}

// printFile copies a mailbox file to the output. A missing file shows
// nothing.
func (a *Advisor) printFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("mailbox file unavailable", "path", path, "error", err)
		return
	}
	a.Out.Write(data)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
