package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/AaronLay10/SentientSignals/internal/api"
	"github.com/AaronLay10/SentientSignals/internal/coordinator"
	"github.com/AaronLay10/SentientSignals/internal/events"
	"github.com/AaronLay10/SentientSignals/internal/mqtt"
	"github.com/AaronLay10/SentientSignals/internal/storage/postgres"
	"github.com/AaronLay10/SentientSignals/internal/version"
)

const connectionPollInterval = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signal coordination service",
	Long: `Run the HTTP API and, unless disabled, the MQTT reading subscriber and
plan publisher plus the Postgres event store. Settings come from flags or
SIGNAL_* environment variables (for example SIGNAL_PORT, SIGNAL_POSTGRES).`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.Int("port", 8080, "HTTP listen port")
	f.String("tls-cert", "", "TLS certificate file (also SIGNAL_TLS_CERT)")
	f.String("tls-key", "", "TLS key file (also SIGNAL_TLS_KEY)")
	f.Bool("mqtt", true, "subscribe to readings and publish plans over MQTT (broker from MQTT_URL)")
	f.Bool("mqtt-required", false, "report not ready while the broker is unreachable")
	f.String("mqtt-client-id", "", "MQTT client ID (default signals-<hostname>)")
	f.Duration("feed-timeout", mqtt.DefaultFeedTimeout, "mark an intersection feed stale after this long without readings")
	f.Bool("postgres", true, "persist events and plans to Postgres (PG* environment)")
	f.Bool("postgres-required", false, "report not ready while Postgres is unreachable")
	f.Int("restore-limit", coordinator.DefaultRestoreLimit, "events replayed from Postgres at startup")

	for _, name := range []string{"port", "tls-cert", "tls-key", "mqtt", "mqtt-required", "mqtt-client-id",
		"feed-timeout", "postgres", "postgres-required", "restore-limit"} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	coord, err := newCoordinator(cat)
	if err != nil {
		return err
	}

	api.InitMetrics()
	api.InitAuth()
	api.InitAlerts()
	api.InitTLS(viper.GetString("tls-cert"), viper.GetString("tls-key"))
	api.SetCity(cat.City)
	api.SetService(coord)
	api.SetCatalogLoaded(true)
	coord.SetAlertFunc(api.SendConflictAlert)

	hostname, _ := os.Hostname()
	logEvent("info", "system.startup", "signal service starting", map[string]interface{}{
		"service":       "signals",
		"version":       version.Version,
		"city":          cat.City,
		"intersections": coord.Registry().Len(),
		"hostname":      hostname,
		"pid":           os.Getpid(),
	})

	pg := startPostgres(coord, cat.City)
	if pg != nil {
		defer pg.Close()
	}

	g, ctx := errgroup.WithContext(ctx)

	if viper.GetBool("mqtt") {
		client, monitor := startMQTT(coord, hostname)
		defer client.Disconnect()
		defer monitor.Stop()

		g.Go(func() error {
			pollConnections(ctx, client, pg)
			return nil
		})
	} else {
		api.SetMQTTState(false, true)
		g.Go(func() error {
			pollConnections(ctx, nil, pg)
			return nil
		})
	}

	api.StartAlertMonitor(ctx, connectionPollInterval)

	srv := api.NewServer(viper.GetInt("port"))
	g.Go(func() error {
		return api.Serve(ctx, srv)
	})

	err = g.Wait()
	logEvent("info", "system.shutdown", "signal service stopping", nil)
	return err
}

// startPostgres connects the event and plan store and restores registry
// state from it. Returns nil when persistence is disabled or unreachable.
func startPostgres(coord *coordinator.Coordinator, city string) *postgres.Client {
	required := viper.GetBool("postgres-required")
	if !viper.GetBool("postgres") {
		api.SetPostgresState(false, true)
		return nil
	}

	pg, err := postgres.New(city)
	if err != nil {
		log.Printf("postgres: unavailable, running without persistence: %v", err)
		api.SetPostgresState(false, !required)
		return nil
	}
	api.SetPostgresState(true, !required)

	// Restore before attaching the sink so replay does not write back.
	state, replayed, err := coordinator.RestoreFromStore(pg, viper.GetInt("restore-limit"))
	if err != nil {
		logEvent("error", "system.error", "restore failed", map[string]interface{}{"error": err.Error()})
	} else if state != nil {
		restored := coord.ApplyRestoredState(state)
		coordinator.EmitStartupRestore(replayed, restored)
	}

	events.SetPostgresClient(pg)
	coord.SetPlanStore(pg)
	api.SetPlanHistory(pg)
	return pg
}

// startMQTT wires the reading subscriber, feed monitor and plan publisher to
// one broker connection.
func startMQTT(coord *coordinator.Coordinator, hostname string) (*mqtt.Client, *mqtt.FeedMonitor) {
	clientID := viper.GetString("mqtt-client-id")
	if clientID == "" {
		clientID = "signals-" + hostname
	}

	monitor := mqtt.NewFeedMonitor(coord.Registry().IDs(), viper.GetDuration("feed-timeout"))
	api.SetStaleFeedSource(monitor.StaleFeeds)

	var sub *mqtt.ReadingSubscriber
	client := mqtt.NewClient(clientID, func() {
		// Paho does not restore subscriptions on a clean session.
		sub.ClearSubscriptions()
		_ = sub.SubscribeReadings()
	})
	sub = mqtt.NewReadingSubscriber(client, coord)
	sub.SetMonitor(monitor)
	coord.SetPublisher(mqtt.NewPlanPublisher(client))

	connected := client.StartWithRetry()
	api.SetMQTTState(connected, !viper.GetBool("mqtt-required"))

	monitor.Start(monitor.Timeout() / 4)
	return client, monitor
}

// pollConnections keeps readiness in step with the broker and database.
func pollConnections(ctx context.Context, client *mqtt.Client, pg *postgres.Client) {
	ticker := time.NewTicker(connectionPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if client != nil {
			api.SetMQTTState(client.IsConnected(), !viper.GetBool("mqtt-required"))
		}
		if pg != nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := pg.Ping(pingCtx)
			cancel()
			api.SetPostgresState(err == nil, !viper.GetBool("postgres-required"))
		}
	}
}

// logEvent emits a system event and mirrors it to the process log.
func logEvent(level, name, msg string, fields map[string]interface{}) {
	line, err := events.Emit(level, name, msg, fields)
	if err != nil {
		log.Printf("event %s: %v", name, err)
		return
	}
	fmt.Println(string(line))
}
