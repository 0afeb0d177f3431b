// Package host wires the scene changer, its content manager and the
// listeners on its event bus into one frame-stepped application.
package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/milk9111/scenechanger/config"
	"github.com/milk9111/scenechanger/loadingscreen"
	"github.com/milk9111/scenechanger/monitor"
	"github.com/milk9111/scenechanger/runstate"
	"github.com/milk9111/scenechanger/scenes"
	"github.com/milk9111/scenechanger/transition"
	"github.com/rs/zerolog"
)

// App owns every per-process component. All methods except ServeMonitor
// belong to the frame loop goroutine.
type App struct {
	Config   *config.Config
	Registry *scenes.Registry
	Manager  *scenes.Manager
	Bus      *transition.Bus
	Changer  *transition.Changer
	Tracker  *runstate.Tracker
	Screen   *loadingscreen.Screen
	Feed     *monitor.Feed
	Trace    *Trace

	log     zerolog.Logger
	watcher *scenes.Watcher
	clock   float64
	frames  int
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	assets := scenes.Assets{Dir: cfg.AssetsDir}
	manifest, err := scenes.LoadManifest(assets, cfg.Manifest)
	if err != nil {
		return nil, err
	}

	reg := scenes.NewRegistry(manifest, assets, log.With().Str("component", "scenes").Logger())
	mgr := scenes.NewManager(reg,
		scenes.WithBatch(cfg.Batch),
		scenes.WithLogger(log.With().Str("component", "scenes").Logger()),
	)
	bus := transition.NewBus()
	changer := transition.NewChanger(mgr, bus,
		transition.WithLogger(log.With().Str("component", "transition").Logger()),
		transition.WithLoadProgressSlots(cfg.LoadProgressSlots),
	)

	a := &App{
		Config:   cfg,
		Registry: reg,
		Manager:  mgr,
		Bus:      bus,
		Changer:  changer,
		Tracker:  runstate.NewTracker(bus, log.With().Str("component", "runstate").Logger()),
		Screen:   loadingscreen.New(bus, cfg.FadeTicks()),
		Trace:    NewTrace(bus, changer.TransitionID),
		log:      log,
	}
	if cfg.MonitorAddr != "" {
		a.Feed = monitor.NewFeed(bus,
			monitor.WithTransitionID(changer.TransitionID),
			monitor.WithLogger(log.With().Str("component", "monitor").Logger()),
			monitor.WithOriginPatterns(cfg.MonitorOrigins...),
		)
	}

	if cfg.Watch {
		dirs := assets.WatchDirs()
		if len(dirs) == 0 {
			log.Warn().Msg("watch enabled without assets_dir; nothing to watch")
		} else {
			w, err := scenes.NewWatcher(dirs...)
			if err != nil {
				return nil, fmt.Errorf("watch %v: %w", dirs, err)
			}
			a.watcher = w
			mgr.Watch(w, cfg.Manifest)
		}
	}
	return a, nil
}

// Start changes to scene, or to the configured or manifest initial scene
// when scene is empty.
func (a *App) Start(scene transition.ContentID) error {
	if scene == "" {
		scene = transition.ContentID(a.Config.InitialScene)
	}
	if scene == "" {
		scene = a.Registry.Initial()
	}
	return a.Changer.ChangeScene(scene)
}

// Frame runs one tick: content loading and scene systems, the scene
// change, then the loading screen. Simulation time advances by the run
// state's time scale. While paused the scene systems are held and only
// manifest reloads are applied.
func (a *App) Frame() error {
	a.frames++
	if a.Tracker.State() == runstate.Paused {
		a.Manager.ApplyReloads()
	} else {
		a.Manager.Update()
	}
	err := a.Changer.Update()
	a.Screen.Update()
	a.clock += a.Tracker.TimeScale() / float64(a.Config.TPS)
	return err
}

// Next changes to the scene after the active one.
func (a *App) Next() error {
	var from transition.ContentID
	if sc := a.Manager.ActiveScene(); sc != nil {
		from = sc.ID()
	}
	return a.Changer.ChangeScene(a.Registry.Next(from))
}

// TogglePause flips between playing and paused. It reports false while a
// scene is loading.
func (a *App) TogglePause() bool {
	ok := a.Tracker.Pause()
	if ok {
		a.log.Info().Stringer("state", a.Tracker.State()).Msg("pause toggled")
	}
	return ok
}

// Clock returns simulated seconds since the app started.
func (a *App) Clock() float64 {
	return a.clock
}

func (a *App) Frames() int {
	return a.frames
}

// ServeMonitor serves the progress feed on Config.MonitorAddr until ctx is
// done. It returns nil immediately when no address is configured.
func (a *App) ServeMonitor(ctx context.Context) error {
	if a.Feed == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", a.Feed)
	err := monitor.Serve(ctx, a.Config.MonitorAddr, mux, a.log)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Tour visits each scene in order, driving frames from ticks, and returns
// once the last one has loaded.
func (a *App) Tour(ctx context.Context, ticks <-chan time.Time, tour []transition.ContentID) error {
	for _, id := range tour {
		if err := a.Changer.ChangeScene(id); err != nil {
			return err
		}
		err := a.Changer.Drive(ctx, ticks, func() {
			a.frames++
			a.Manager.Update()
		})
		if err != nil {
			return err
		}
		a.log.Info().
			Str("scene", string(id)).
			Int("updates", len(a.Trace.Values())).
			Float64("last_progress", a.Changer.LastProgress()).
			Msg("scene ready")
	}
	return nil
}

func (a *App) Close() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.Feed != nil {
		a.Feed.Close()
	}
	a.Trace.Close()
	a.Screen.Close()
	a.Tracker.Close()
}
