package discovery

import (
	"github.com/samber/lo"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/directory"
	"github.com/mrz1836/accounthub/internal/plugin"
)

// Outcome classifies a discovery result for reporting.
type Outcome int

// Discovery outcomes.
const (
	// OutcomeNotFound means no multisig descriptor was found.
	OutcomeNotFound Outcome = iota
	// OutcomeNoLocalSigner means a descriptor exists but no available
	// account can sign for any of its signatories.
	OutcomeNoLocalSigner
	// OutcomeReady means at least one local signer is eligible.
	OutcomeReady
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNoLocalSigner:
		return "no-local-signer"
	case OutcomeReady:
		return "ready"
	default:
		return "not-found"
	}
}

// Result is a candidate together with the local accounts able to sign for it.
type Result struct {
	Candidate *Candidate
	Signers   []plugin.Account
	Outcome   Outcome
}

// EligibleSigners returns the accounts in snap that expose a signer and
// whose address is one of the candidate's signatories.
func EligibleSigners(c *Candidate, snap directory.Snapshot) []plugin.Account {
	if c == nil {
		return nil
	}
	return lo.Filter(directory.Signers(snap), func(account plugin.Account, _ int) bool {
		return lo.ContainsBy(c.Descriptor.Signatories, func(s address.Address) bool {
			return address.Equal(account.Address, s)
		})
	})
}

// Classify builds the Result for a candidate against snap.
func Classify(c *Candidate, snap directory.Snapshot) Result {
	if c == nil {
		return Result{Outcome: OutcomeNotFound}
	}
	signers := EligibleSigners(c, snap)
	outcome := OutcomeReady
	if len(signers) == 0 {
		outcome = OutcomeNoLocalSigner
	}
	return Result{Candidate: c, Signers: signers, Outcome: outcome}
}
