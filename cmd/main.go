package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gopxl/beep"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/okian/handbeat/internal/adapters/audioclock"
	"github.com/okian/handbeat/internal/adapters/chartfile"
	"github.com/okian/handbeat/internal/adapters/http/api"
	"github.com/okian/handbeat/internal/adapters/http/swagger"
	"github.com/okian/handbeat/internal/adapters/mq/queue"
	"github.com/okian/handbeat/internal/adapters/mq/worker"
	"github.com/okian/handbeat/internal/adapters/replay"
	"github.com/okian/handbeat/internal/adapters/repository"
	"github.com/okian/handbeat/internal/app"
	"github.com/okian/handbeat/internal/config"
	"github.com/okian/handbeat/internal/domain/judge"
	"github.com/okian/handbeat/internal/domain/model"
	"github.com/okian/handbeat/internal/domain/tracking"
	"github.com/okian/handbeat/pkg/logger"
	"github.com/okian/handbeat/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	queueMetricsInterval      = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

const version = "0.1.0"

// options are the command-line flags.
type options struct {
	chart      string
	detections string
	config     string
	linger     bool
}

func parseArgs(args []string) (options, error) {
	var o options
	cli := kingpin.New("handbeat", "Headless hand-tracked rhythm game engine.")
	cli.Version(version)
	cli.Flag("chart", "Chart file (YAML)").Required().Short('c').ExistingFileVar(&o.chart)
	cli.Flag("detections", "Recorded hand detections to replay (msgpack)").Short('d').ExistingFileVar(&o.detections)
	cli.Flag("config", "Config file (YAML), overrides $HANDBEAT_CONFIG").StringVar(&o.config)
	cli.Flag("linger", "Keep serving HTTP after the session ends, until interrupted").BoolVar(&o.linger)

	if _, err := cli.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString("handbeat: " + err.Error() + "\n")
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go startSystemMetricsUpdater(ctx)

	if err := run(ctx, opts, logger.Get()); err != nil {
		logger.Get().Error(ctx, "handbeat failed", logger.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1) //nolint:gocritic // exitAfterDefer
	}
}

// run plays one session of the chart and records its outcome.
func run(ctx context.Context, opts options, log logger.Logger) error {
	cfg, err := config.Load(ctx, opts.config)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	chart, err := chartfile.Load(ctx, opts.chart)
	if err != nil {
		return err
	}
	log.Info(ctx, "chart loaded",
		logger.String("chart", chart.ID),
		logger.Int("targets", len(chart.Targets)),
		logger.String("fingerprint", chart.Fingerprint()))

	store, err := repository.NewSQLiteStore(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "closing store", logger.Error(err))
		}
	}()

	// Notifications are delivered off the tick path and outlive a canceled run
	// so the final summary is still stored.
	q := queue.NewInMemoryQueue(queue.WithCapacity(cfg.QueueSize))
	w := worker.New(q, []worker.Sink{
		worker.NewLogSink(log.Named("session")),
		worker.NewRecorderSink(store),
	}, worker.WithLogger(log.Named("worker")))
	go w.Run(context.WithoutCancel(ctx))
	go startQueueMetricsUpdater(ctx, q)
	defer drain(ctx, log, q, w)

	conditioner := tracking.NewConditioner(cfg.ConditionerOptions()...)

	playCtx, cancelPlay := context.WithCancel(ctx)
	defer cancelPlay()

	rate := beep.SampleRate(cfg.SampleRate)
	length := time.Duration(chart.Duration()*float64(time.Second)) + time.Duration(cfg.EndPaddingMS)*time.Millisecond
	clock := audioclock.New(audioclock.Silence(rate, length), rate, audioclock.Headless{
		Ctx:    playCtx,
		Rate:   rate,
		Period: cfg.TickInterval(),
	})

	game := app.New(chart, conditioner, clock,
		app.WithJudge(judge.New(judge.WithGeometry(cfg.Geometry()))),
		app.WithLogger(log.Named("game")),
		app.WithPublisher(q),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(game, store, cfg.MaxLeaderboardLimit),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}()
	defer func() {
		log.Info(ctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "server shutdown failed", logger.Error(err))
		}
		log.Info(ctx, "server stopped")
	}()

	frames, closeFrames, sensingErr := openDetections(opts.detections)
	defer closeFrames()
	if err := game.Ready(ctx, sensingErr); err != nil {
		return err
	}

	if err := game.Start(ctx); err != nil {
		return err
	}
	if frames != nil {
		start := time.Now()
		go func() {
			if err := replay.Play(playCtx, frames, conditioner, start); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn(ctx, "detection replay stopped", logger.Error(err))
			}
		}()
	}

	outcome := play(playCtx, game, cfg.TickInterval())
	cancelPlay()

	drain(ctx, log, q, w)

	if sum, ok := game.Summary(); ok {
		report(ctx, log, store, sum)
	} else {
		log.Info(ctx, "session interrupted", logger.String("phase", outcome.String()))
	}

	if opts.linger && ctx.Err() == nil {
		log.Info(ctx, "session over; serving until interrupted")
		<-ctx.Done()
	}
	return nil
}

// drain closes the queue and waits for the worker to deliver what is left.
// Calling it again is a no-op.
func drain(ctx context.Context, log logger.Logger, q *queue.InMemoryQueue, w *worker.Worker) {
	if err := q.Close(); err != nil {
		log.Error(ctx, "closing queue", logger.Error(err))
	}
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := w.Shutdown(drainCtx); err != nil {
		log.Error(ctx, "notification worker did not drain", logger.Error(err))
	}
}

// openDetections opens a recorded take. An empty path means no hand input:
// every hand stays untracked. The returned error is a sensing failure.
func openDetections(path string) (*replay.Reader, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, func() {}, err
	}
	return replay.NewReader(f), func() { _ = f.Close() }, nil
}

func newMux(game *app.Game, store repository.Store, maxLimit int) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(game, store, maxLimit).Register(mux)
	return mux
}

// play ticks the game until it reaches a terminal phase or ctx ends.
func play(ctx context.Context, game *app.Game, interval time.Duration) model.Phase {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return game.Phase()
		case <-ticker.C:
			if phase := game.Tick(ctx); phase.Terminal() {
				return phase
			}
		}
	}
}

// report logs the final tally and where the session placed on its chart.
func report(ctx context.Context, log logger.Logger, store repository.Store, sum model.Summary) { //nolint:gocritic // hugeParam
	fields := []logger.Field{
		logger.String("session", sum.SessionID),
		logger.String("outcome", sum.Outcome.String()),
		logger.Int("score", sum.Score),
		logger.Int("max_combo", sum.MaxCombo),
		logger.String("accuracy", fmt.Sprintf("%.1f%%", sum.Accuracy*100)),
		logger.Float64("mean_offset", sum.MeanOffset),
		logger.Float64("stdev_offset", sum.StdevOffset),
	}
	if entry, err := store.Rank(ctx, sum.SessionID); err == nil {
		fields = append(fields, logger.Int("rank", entry.Rank))
	}
	if total, err := store.Count(ctx, sum.ChartID); err == nil {
		fields = append(fields, logger.Int("plays", total))
	}
	log.Info(ctx, "session finished", fields...)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startQueueMetricsUpdater samples the notification backlog.
func startQueueMetricsUpdater(ctx context.Context, q *queue.InMemoryQueue) {
	ticker := time.NewTicker(queueMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Len(ctx)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
