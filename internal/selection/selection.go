// Package selection holds the currently selected account and keeps it
// consistent with the account directory.
package selection

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/directory"
	"github.com/mrz1836/accounthub/internal/plugin"
	"github.com/mrz1836/accounthub/internal/stream"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// State is an owned selection container. A nil cell value means nothing
// is selected. Create one per application with New and Close it on exit.
type State struct {
	mu   sync.Mutex
	cell *stream.Cell[*plugin.Account]
	dir  *directory.Directory
	sub  event.Subscription
	log  config.LogWriter
}

// New creates an empty selection that follows dir.
func New(dir *directory.Directory, log config.LogWriter) *State {
	s := &State{
		cell: stream.NewCell[*plugin.Account](nil),
		dir:  dir,
		log:  config.Named(log, "selection"),
	}
	s.sub = dir.Cell().Watch(s.onSnapshot)
	return s
}

// Select makes account the current selection. The account's provider must
// be present in the directory.
func (s *State) Select(account plugin.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dir.Snapshot().Has(account.ProviderID) {
		return huberr.WithDetails(huberr.ErrPluginNotFound, map[string]string{
			"id":      account.ProviderID,
			"address": account.Address.String(),
		})
	}

	selected := account
	s.cell.Set(&selected)
	return nil
}

// Clear empties the selection.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cell.Set(nil)
}

// Selected returns the selected account, if any.
func (s *State) Selected() (plugin.Account, bool) {
	cur := s.cell.Get()
	if cur == nil {
		return plugin.Account{}, false
	}
	return *cur, true
}

// Cell returns the selection cell.
func (s *State) Cell() *stream.Cell[*plugin.Account] {
	return s.cell
}

// Close stops following the directory and ends all subscriptions.
func (s *State) Close() {
	s.sub.Unsubscribe()
	s.cell.Close()
}

// onSnapshot clears the selection when its provider is gone. Deliveries
// can lag, so the latest snapshot is checked rather than the one passed in.
func (s *State) onSnapshot(directory.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.cell.Get()
	if cur == nil || s.dir.Snapshot().Has(cur.ProviderID) {
		return
	}
	s.log.Debug("provider %q vanished, clearing %s", cur.ProviderID, cur.Address)
	s.cell.Set(nil)
}
