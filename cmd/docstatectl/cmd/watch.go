package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/domain"
	"github.com/heavy-duty/docstate/services"
	"github.com/heavy-duty/docstate/stores"
	"github.com/heavy-duty/docstate/viewstate"
)

var (
	ErrUnknownWatchTarget = errors.New("unknown watch target")
	ErrMissingSelector    = errors.New("missing selector flag")
)

const (
	targetEvents           = "events"
	targetEvent            = "event"
	targetSeasons          = "seasons"
	targetSeason           = "season"
	targetCodingChallenges = "coding-challenges"
	targetParticipants     = "participants"
)

type watchFlags struct {
	id      string
	name    string
	status  string
	eventID string
	userID  string
}

// stateLine is one printed state change.
type stateLine struct {
	Filters   string `json:"filters"`
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data"`
}

// stateWriter prints one JSON line per state; listeners of different stores may call it concurrently.
type stateWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *stateWriter) write(line stateLine) {
	encoded, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(line)
	if err != nil {
		encoded = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	_, _ = w.out.Write(append(encoded, '\n'))
}

func (a *app) newWatchCommand() *cobra.Command {
	flags := &watchFlags{}

	watchCmd := &cobra.Command{
		Use:   "watch <events|event|seasons|season|coding-challenges|participants>",
		Short: "Follow a store and print every state change as a JSON line",
		Long: `Follow a store until interrupted and print every state change as a JSON line.

Selectors:
  event, season        --id or --name
  coding-challenges    --status (all challenges without it)
  participants         --event-id or --user-id

Examples:
  docstatectl watch events
  docstatectl watch event --name launch
  docstatectl watch participants --user-id u1`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{targetEvents, targetEvent, targetSeasons, targetSeason, targetCodingChallenges, targetParticipants},
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), &stateWriter{out: cmd.OutOrStdout()}, args[0], flags)
		}),
	}

	watchCmd.Flags().StringVar(&flags.id, "id", "", "document id")
	watchCmd.Flags().StringVar(&flags.name, "name", "", "name field")
	watchCmd.Flags().StringVar(&flags.status, "status", "", "status field")
	watchCmd.Flags().StringVar(&flags.eventID, "event-id", "", "event id of participants")
	watchCmd.Flags().StringVar(&flags.userID, "user-id", "", "user id of participants")

	return watchCmd
}

func (a *app) watch(ctx context.Context, out *stateWriter, target string, flags *watchFlags) error {
	options := []viewstate.Option{viewstate.WithContext(ctx), viewstate.WithLogger(a.logger)}
	client := a.handle.Client

	switch target {
	case targetEvents:
		store, err := stores.NewEventsStore(services.NewEventAPI(client), options...)
		if err != nil {
			return err
		}

		return follow(ctx, out, store, nil)

	case targetEvent:
		filters, err := flags.entityFilter(func(name *string) *docstore.Filter {
			return services.EventFields{Name: name}.Filter()
		})
		if err != nil {
			return err
		}

		store, err := stores.NewEventStore(services.NewEventAPI(client), options...)
		if err != nil {
			return err
		}

		return follow(ctx, out, store, filters)

	case targetSeasons:
		store, err := stores.NewSeasonsStore(services.NewSeasonAPI(client), options...)
		if err != nil {
			return err
		}

		return follow(ctx, out, store, nil)

	case targetSeason:
		filters, err := flags.entityFilter(func(name *string) *docstore.Filter {
			return services.SeasonFields{Name: name}.Filter()
		})
		if err != nil {
			return err
		}

		store, err := stores.NewSeasonStore(services.NewSeasonAPI(client), options...)
		if err != nil {
			return err
		}

		return follow(ctx, out, store, filters)

	case targetCodingChallenges:
		fields := services.CodingChallengeFields{}
		if flags.status != "" {
			status := domain.CodingChallengeStatus(flags.status)
			fields.Status = &status
		}

		store, err := stores.NewCodingChallengesStore(services.NewCodingChallengeAPI(client), options...)
		if err != nil {
			return err
		}

		return follow(ctx, out, store, fields.Filter())

	case targetParticipants:
		var filters *docstore.Filter

		switch {
		case flags.eventID != "":
			filters = services.ParticipantsByEvent(flags.eventID)
		case flags.userID != "":
			filters = services.ParticipantsByUser(flags.userID)
		default:
			return fmt.Errorf("%w: participants need --event-id or --user-id", ErrMissingSelector)
		}

		store, err := stores.NewParticipantsStore(services.NewParticipantAPI(client), options...)
		if err != nil {
			return err
		}

		return follow(ctx, out, store, filters)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownWatchTarget, target)
	}
}

func (f *watchFlags) entityFilter(byName func(name *string) *docstore.Filter) (*docstore.Filter, error) {
	switch {
	case f.id != "":
		return docstore.ByID(f.id), nil
	case f.name != "":
		return byName(&f.name), nil
	default:
		return nil, fmt.Errorf("%w: use --id or --name", ErrMissingSelector)
	}
}

// follow prints the store's current state and every later change until ctx ends.
// A nil filters keeps the filters the store was built with.
func follow[D any](ctx context.Context, out *stateWriter, store *viewstate.Store[D], filters *docstore.Filter) error {
	defer store.Close()

	unsubscribe := store.Subscribe(func(state viewstate.State[D]) {
		out.write(toStateLine(state))
	})
	defer unsubscribe()

	if filters != nil {
		store.SetFilters(filters)
	} else {
		out.write(toStateLine(store.State()))
	}

	<-ctx.Done()

	return nil
}

func toStateLine[D any](state viewstate.State[D]) stateLine {
	line := stateLine{
		Filters:   state.Filters.String(),
		IsLoading: state.IsLoading,
		Data:      state.Data,
	}

	if state.Err != nil {
		line.Error = state.Err.Error()
	}

	return line
}
