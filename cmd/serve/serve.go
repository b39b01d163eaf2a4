package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/histolab/msinet-go/internal/conf"
	"github.com/histolab/msinet-go/internal/datastore"
	"github.com/histolab/msinet-go/internal/httpcontroller"
	"github.com/histolab/msinet-go/internal/msinet"
)

// Command creates the serve command which runs the web interface.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Long:  "Start the HTTP server hosting the patient registry and slide classification interface.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port to listen on")
	cmd.Flags().StringVar(&settings.Uploads.Path, "uploadpath", viper.GetString("uploads.path"), "Path to save uploaded slide images")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

// runServer wires the datastore, the classifier and the HTTP server together
// and blocks until a termination signal arrives.
func runServer(settings *conf.Settings) error {
	dataStore := datastore.New(settings)
	if err := dataStore.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer closeDataStore(dataStore)

	classifier, err := msinet.New(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}
	defer classifier.Delete()

	server := httpcontroller.New(settings, dataStore, classifier)
	server.Start()

	// Block until a termination signal arrives.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	if err := server.Shutdown(); err != nil {
		fmt.Printf("error shutting down server: %v\n", err)
	}

	return nil
}

func closeDataStore(store datastore.Interface) {
	if err := store.Close(); err != nil {
		fmt.Printf("error closing datastore: %v\n", err)
	}
}
