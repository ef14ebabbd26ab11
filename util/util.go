// Package util contains helpers shared across hepkit packages.
package util

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/rs/xid"
)

// GenID generates an identifier for a submission or bundle.
// IDs are globally unique and sortable.
func GenID() string {
	return xid.New().String()
}

// Ticker is a wrapper around time.Ticker which
// 1) fires immediately
// 2) can be canceled by the given context.
func Ticker(ctx context.Context, d time.Duration) <-chan time.Time {
	out := make(chan time.Time)
	go func() {
		select {
		case out <- time.Now():
		case <-ctx.Done():
			return
		}
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// SignalContext will cancel the context when any of the given
// signals is received.
func SignalContext(ctx context.Context, delay time.Duration, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	sch := make(chan os.Signal, 1)
	sub, cancel := context.WithCancel(ctx)
	signal.Notify(sch, sigs...)

	go func() {
		defer signal.Stop(sch)
		select {
		case <-sub.Done():
			return
		case <-sch:
			time.Sleep(delay)
			cancel()
		}
	}()

	return sub, cancel
}

// PrettyPrintMap writes "key: value" lines with keys right-aligned to the
// longest key. valueFormat is a fmt verb applied to each value ("%v" when
// empty). Keys are printed in the given order, or sorted when order is nil.
func PrettyPrintMap(w io.Writer, m map[string]interface{}, valueFormat string, order []string) error {
	if valueFormat == "" {
		valueFormat = "%v"
	}
	keys := order
	if keys == nil {
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	width := 0
	for _, k := range keys {
		if len(k) > width {
			width = len(k)
		}
	}

	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			return fmt.Errorf("key %q not found in map", k)
		}
		line := fmt.Sprintf("%*s: %s", width, k, fmt.Sprintf(valueFormat, v))
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}
