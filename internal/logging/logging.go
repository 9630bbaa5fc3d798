// Package logging defines the Logger collaborator the node reports
// membership and transaction events through. The wire format and the
// membership/quorum algorithms do not depend on any particular log text;
// Standard is a concrete, self-consistent implementation over the standard
// library log package, not an attempt to match a specific harness's exact
// strings.
package logging

import (
	"log"
	"os"

	"kvstore/internal/address"
)

// Logger receives the events the system is required to report: membership
// changes, and the coordinator-side vs. server-side outcome of every
// transaction.
type Logger interface {
	MemberAdded(self, member address.Address)
	MemberRemoved(self, member address.Address)
	CoordinatorSuccess(self address.Address, transID int32, op, key string)
	CoordinatorFailure(self address.Address, transID int32, op, key string)
	ServerSuccess(self address.Address, transID int32, op, key string)
	ServerFailure(self address.Address, transID int32, op, key string)
}

// Standard logs fixed-format lines through the standard library logger.
type Standard struct {
	*log.Logger
}

// NewStandard returns a Standard logger writing to os.Stderr with no
// timestamp prefix stripped — callers that want different output wrap a
// different *log.Logger.
func NewStandard() *Standard {
	return &Standard{Logger: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *Standard) MemberAdded(self, member address.Address) {
	s.Printf("[%s] node added: %s", self, member)
}

func (s *Standard) MemberRemoved(self, member address.Address) {
	s.Printf("[%s] node removed: %s", self, member)
}

func (s *Standard) CoordinatorSuccess(self address.Address, transID int32, op, key string) {
	s.Printf("[%s] coordinator trans=%d op=%s key=%s: SUCCESS", self, transID, op, key)
}

func (s *Standard) CoordinatorFailure(self address.Address, transID int32, op, key string) {
	s.Printf("[%s] coordinator trans=%d op=%s key=%s: FAILURE", self, transID, op, key)
}

func (s *Standard) ServerSuccess(self address.Address, transID int32, op, key string) {
	s.Printf("[%s] server trans=%d op=%s key=%s: SUCCESS", self, transID, op, key)
}

func (s *Standard) ServerFailure(self address.Address, transID int32, op, key string) {
	s.Printf("[%s] server trans=%d op=%s key=%s: FAILURE", self, transID, op, key)
}

// Noop discards every event, for tests that don't care about log output.
type Noop struct{}

func (Noop) MemberAdded(self, member address.Address)                       {}
func (Noop) MemberRemoved(self, member address.Address)                     {}
func (Noop) CoordinatorSuccess(self address.Address, transID int32, op, key string) {}
func (Noop) CoordinatorFailure(self address.Address, transID int32, op, key string) {}
func (Noop) ServerSuccess(self address.Address, transID int32, op, key string)      {}
func (Noop) ServerFailure(self address.Address, transID int32, op, key string)      {}
