package store

import (
	"context"
	"errors"
	"sync"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/errs"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a short user-facing message about the outcome of a mutation.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Collector gathers the notifications raised while serving one request.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

type collectorKey struct{}

func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

func (c *Collector) add(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

func (c *Collector) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

func notify(ctx context.Context, n Notification) {
	if c, ok := ctx.Value(collectorKey{}).(*Collector); ok {
		c.add(n)
	}
}

func notifySuccess(ctx context.Context, singular, pastVerb string) {
	msg := capitalize(singular) + " " + pastVerb + " successfully"
	log.Info().Msg(msg)
	notify(ctx, Notification{Level: LevelSuccess, Message: msg})
}

func notifyFailure(ctx context.Context, verb, singular string, err error) {
	msg := "Failed to " + verb + " " + singular + ": " + errorMessage(err)
	log.Warn().Err(err).Msg(msg)
	notify(ctx, Notification{Level: LevelError, Message: msg})
}

func errorMessage(err error) string {
	var apiErr *errs.ApiErr
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return err.Error()
}

func capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}
