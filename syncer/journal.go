package syncer

import (
	"context"
	"time"
)

// Op names a remote interaction.
type Op string

const (
	OpPush   Op = "push"
	OpPull   Op = "pull"
	OpDelete Op = "delete"
)

// Entry is one journalled remote interaction.
type Entry struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Op      Op        `json:"op"`
	Date    string    `json:"date,omitempty"`
	Outcome string    `json:"outcome"`
	Reason  string    `json:"reason,omitempty"`
	Records int       `json:"records"`
}

// Journal keeps an append-only history of remote interactions.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
