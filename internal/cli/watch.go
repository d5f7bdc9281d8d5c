package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Flowboard/internal/mq"
)

// newWorkflowWatchCmd создаёт команду наблюдения за событиями workflow.
// Команда подключается к RabbitMQ напрямую, минуя HTTP API, и печатает
// события сохранения и публикации до прерывания.
func newWorkflowWatchCmd() *cobra.Command {
	var mqURL string

	cmd := &cobra.Command{
		Use:   "watch <workflow-id>",
		Short: "Stream save and publish events for a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflowID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid workflow id %q: %w", args[0], err)
			}

			if mqURL == "" {
				mqURL = os.Getenv("RABBITMQ_URL")
			}
			if mqURL == "" {
				mqURL = mq.DefaultURL()
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}))

			conn, err := mq.NewConnection(mqURL, logger)
			if err != nil {
				return fmt.Errorf("connect to rabbitmq: %w", err)
			}
			defer conn.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(os.Stderr, "Watching workflow %s (Ctrl+C to stop)\n", workflowID)

			sub := mq.NewSubscriber(conn, logger)
			err = sub.Subscribe(ctx, workflowID, mq.SessionHandlers{
				Saved: func(p mq.WorkflowSavedPayload) {
					fmt.Printf("saved     v%-4d by %-20s %s\n",
						p.Version, p.SavedBy, p.Timestamp.Format("15:04:05"))
				},
				Published: func(p mq.WorkflowPublishedPayload) {
					fmt.Printf("published v%-4d by %s\n", p.Version, p.PublishedBy)
				},
				Disconnected: func() {
					fmt.Fprintln(os.Stderr, "connection lost, events may be missed")
				},
				Connected: func() {
					fmt.Fprintln(os.Stderr, "reconnected")
				},
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&mqURL, "mq-url", "", "RabbitMQ URL (default $RABBITMQ_URL)")

	return cmd
}
