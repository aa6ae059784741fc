// Package cli provides the notewise command line interface.
// It is a driving adapter: commands call core services through driving ports.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewise/internal/core/ports/driven"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
	"github.com/custodia-labs/notewise/internal/logger"
)

// DefaultOwnerID owns documents when --user is not given.
const DefaultOwnerID = "local"

// annotationServices marks commands that need the core services.
const annotationServices = "notewise/services"

var version = "dev"

var (
	settingsService     driving.SettingsService
	noteService         driving.NoteService
	ingestService       driving.IngestService
	retrievalService    driving.RetrievalService
	conversationService driving.ConversationService
	normaliserRegistry  driven.NormaliserRegistry
)

// Services are the core services the commands drive.
type Services struct {
	Notes        driving.NoteService
	Ingest       driving.IngestService
	Retrieval    driving.RetrievalService
	Conversation driving.ConversationService
	Normalisers  driven.NormaliserRegistry

	// ServerPort is the configured REST listen port.
	ServerPort int

	// Close releases storage and provider connections. May be nil.
	Close func() error
}

// BootstrapOptions tune how services are built for one invocation.
type BootstrapOptions struct {
	// Ephemeral uses in-memory storage instead of the configured backends.
	Ephemeral bool
}

// BootstrapFunc builds the core services from the current settings.
type BootstrapFunc func(ctx context.Context, opts BootstrapOptions) (*Services, error)

var (
	bootstrap BootstrapFunc
	opened    *Services
)

var rootCmd = &cobra.Command{
	Use:   "notewise",
	Short: "Summarise and chat with your notes",
	Long: `notewise turns notes into searchable context for an LLM.

Ingest text, PDF or Word documents, get structured summaries, and ask
follow-up questions grounded in the note and the conversation so far.

Get started:
  notewise settings wizard
  notewise summarize meeting.pdf
  notewise chat <document-id> "what did we decide?"`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug logs to stderr")
	rootCmd.PersistentFlags().Bool("ephemeral", false, "Keep vectors and history in memory for this run")
	rootCmd.PersistentFlags().StringP("user", "u", DefaultOwnerID, "Owner id documents are stored under")
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// SetSettingsService sets the settings service. It is available before bootstrap.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetBootstrap sets how services are built for commands that need them.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// setServices installs already built services.
func setServices(s *Services) {
	noteService = s.Notes
	ingestService = s.Ingest
	retrievalService = s.Retrieval
	conversationService = s.Conversation
	normaliserRegistry = s.Normalisers
	if s.ServerPort > 0 {
		serverPort = s.ServerPort
	}
}

// needsServices marks cmd as requiring the core services.
func needsServices(cmd *cobra.Command) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationServices] = "true"
}

// prepare applies the global flags and bootstraps services on first use.
func prepare(cmd *cobra.Command, _ []string) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil {
		logger.SetVerbose(verbose)
	}

	if cmd.Annotations[annotationServices] != "true" || bootstrap == nil || opened != nil {
		return nil
	}

	ephemeral, _ := cmd.Flags().GetBool("ephemeral") //nolint:errcheck // persistent flag always exists
	svc, err := bootstrap(cmd.Context(), BootstrapOptions{Ephemeral: ephemeral})
	if err != nil {
		return err
	}
	opened = svc
	setServices(svc)
	return nil
}

// ownerID returns the --user flag value.
func ownerID(cmd *cobra.Command) string {
	owner, err := cmd.Flags().GetString("user")
	if err != nil || owner == "" {
		return DefaultOwnerID
	}
	return owner
}

// Execute runs the root command until completion or interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if opened != nil && opened.Close != nil {
		if cerr := opened.Close(); cerr != nil {
			logger.Warn("closing services: %v", cerr)
		}
		opened = nil
	}
	return err
}
