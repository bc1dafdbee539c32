package storage

import (
	"log/slog"

	"budgetbook/internal/cipher"
)

// Options carries the collaborators shared by the stores.
type Options struct {
	Cipher cipher.Cipher
	Logger *slog.Logger
	// OnSkip, if set, is called once per line dropped while loading.
	OnSkip func(reason string)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) skip(reason string) {
	if o.OnSkip != nil {
		o.OnSkip(reason)
	}
}
