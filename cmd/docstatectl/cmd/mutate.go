package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/heavy-duty/docstate/actions"
	"github.com/heavy-duty/docstate/domain"
	"github.com/heavy-duty/docstate/mutation"
	"github.com/heavy-duty/docstate/services"
)

var ErrMutationFailed = errors.New("mutation failed")

// printer writes the notification sequence of one run and remembers the error message.
type printer struct {
	out     io.Writer
	message *string
}

func (p *printer) notifier() mutation.Notifier {
	return mutation.NotifierFuncs{
		OnStarts:  func() { fmt.Fprintln(p.out, "starts") },
		OnSuccess: func() { fmt.Fprintln(p.out, "success") },
		OnError: func(message string) {
			p.message = &message
			fmt.Fprintf(p.out, "error: %s\n", message)
		},
		OnEnds: func() { fmt.Fprintln(p.out, "ends") },
	}
}

func (p *printer) err() error {
	if p.message == nil {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrMutationFailed, *p.message)
}

// run builds a runner with build, runs it once with payload and fails when Error was notified.
func run[P any](
	ctx context.Context,
	a *app,
	out io.Writer,
	build func(options ...mutation.Option) (*mutation.Runner[P], error),
	payload P,
) error {

	p := &printer{out: out}

	runner, err := build(mutation.WithNotifier(p.notifier()), mutation.WithContextualLogger(a.logger))
	if err != nil {
		return err
	}

	runner.Run(ctx, payload)

	return p.err()
}

func (a *app) newCreateEventCommand() *cobra.Command {
	var payload services.CreateEventPayload
	var eventType string

	createCmd := &cobra.Command{
		Use:   "create-event",
		Short: "Create an event",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			payload.Type = domain.EventType(eventType)
			api := services.NewEventAPI(a.handle.Client)

			return run(cmd.Context(), a, cmd.OutOrStdout(), func(options ...mutation.Option) (*mutation.Runner[services.CreateEventPayload], error) {
				return actions.NewCreateEvent(api, options...)
			}, payload)
		}),
	}

	createCmd.Flags().StringVar(&payload.Name, "name", "", "unique event name")
	createCmd.Flags().StringVar(&payload.Title, "title", "", "event title")
	createCmd.Flags().StringVar(&payload.Description, "description", "", "event description")
	createCmd.Flags().StringVar(&eventType, "type", string(domain.EventTypeMeetup), "workshop, hackathon or meetup")
	_ = createCmd.MarkFlagRequired("name")

	return createCmd
}

func (a *app) newDeleteEventCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-event <event-id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			api := services.NewEventAPI(a.handle.Client)

			return run(cmd.Context(), a, cmd.OutOrStdout(), func(options ...mutation.Option) (*mutation.Runner[services.DeleteEventPayload], error) {
				return actions.NewDeleteEvent(api, options...)
			}, services.DeleteEventPayload{EventID: args[0]})
		}),
	}
}

func (a *app) newDeleteCodingChallengeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-coding-challenge <challenge-id>",
		Short: "Delete a coding challenge",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			api := services.NewCodingChallengeAPI(a.handle.Client)

			return run(cmd.Context(), a, cmd.OutOrStdout(), func(options ...mutation.Option) (*mutation.Runner[services.DeleteCodingChallengePayload], error) {
				return actions.NewDeleteCodingChallenge(api, options...)
			}, services.DeleteCodingChallengePayload{ID: args[0]})
		}),
	}
}
