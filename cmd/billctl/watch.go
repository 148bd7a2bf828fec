package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/billplanner/internal/api"
	"github.com/mmynk/billplanner/internal/state"
)

var resubscribeDelay = time.Second

func watchCmd(a *app) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:       "watch <bills|budget>",
		Short:     "Follow a collection and print it on every change",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bills", "budget"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), a, args[0], once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Print the snapshot and exit")
	return cmd
}

// watch keeps a local store in sync with the server. When the stream ends,
// either cleanly (server restart) or because the client lagged, it
// resubscribes for a new snapshot. Other errors, --once and cancellation
// end it.
func watch(ctx context.Context, a *app, collection string, once bool) error {
	store := state.New()
	for {
		err := follow(ctx, a, store, collection, once)
		if ctx.Err() != nil || (err == nil && once) {
			return nil
		}
		if err != nil && connect.CodeOf(err) != connect.CodeUnavailable {
			return err
		}

		slog.Warn("Stream ended, resubscribing", "collection", collection, "error", err)
		store.Reset(collection)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(resubscribeDelay):
		}
	}
}

func follow(ctx context.Context, a *app, store *state.Store, collection string, once bool) error {
	stream, err := a.feedClient().Subscribe(ctx, connect.NewRequest(&api.SubscribeRequest{Collection: collection}))
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		event := stream.Msg()
		if err := store.Apply(event); err != nil {
			return fmt.Errorf("apply %s event: %w", event.Type, err)
		}
		if err := printView(a.out, collection, store.View()); err != nil {
			return err
		}
		if once {
			return nil
		}
	}
	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
