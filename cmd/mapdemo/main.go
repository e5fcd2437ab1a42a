package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/voxelmap/internal/config"
	"github.com/annel0/voxelmap/internal/logging"
	"github.com/annel0/voxelmap/internal/metrics"
	"github.com/annel0/voxelmap/internal/observability"
	"github.com/annel0/voxelmap/internal/palette"
	"github.com/annel0/voxelmap/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или VOXELMAP_CONFIG)")
	ticks := flag.Uint64("ticks", 600, "количество тиков")
	seed := flag.Int64("seed", 42, "seed генератора мира")
	radius := flag.Int("radius", 6, "радиус загрузки чанков вокруг наблюдателя")
	observerY := flag.Int("y", 40, "высота наблюдателя")
	ceilingAt := flag.Uint64("ceiling-at", 0, "тик перехода в измерение с потолком (0 без перехода)")
	interval := flag.Duration("tick", 0, "интервал тика (0 без ожидания)")
	outDir := flag.String("out", ".", "каталог для PNG")
	logDir := flag.String("log-dir", "logs", "каталог файлов логов")
	logLevel := flag.String("log-level", "info", "уровень логов в консоль")
	multiplayer := flag.Bool("multiplayer", false, "режим сетевой игры")
	flag.Parse()

	if err := logging.InitDefaultLogger("mapdemo", *logDir); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	level, ok := logging.ParseLevel(*logLevel)
	if !ok {
		logging.Warn("Неизвестный уровень логов %q, используется INFO", *logLevel)
	}
	logging.SetDefaultLevel(level)
	manager := logging.GetLoggerManager()
	defer manager.CloseAll()
	if err := manager.ConfigureComponents(level, logging.DEBUG, logging.MapComponents...); err != nil {
		logging.Warn("Логи компонентов пишутся только в консоль: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	pal := palette.Default()
	if cfg.Palette != "" {
		if pal, err = palette.Load(cfg.Palette); err != nil {
			log.Fatalf("❌ Ошибка загрузки палитры: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.NoopShutdown
	if opts, enabled := observability.OptionsFromEnv("voxelmap"); enabled {
		if shutdownTracing, err = observability.InitTelemetry(ctx, opts); err != nil {
			logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
			shutdownTracing = observability.NoopShutdown
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	metricsSrv := metrics.StartHTTP(fmt.Sprintf(":%d", cfg.Metrics.GetPort()), reg)

	var snapshots *storage.SnapshotStore
	if cfg.Storage.InMemory {
		snapshots, err = storage.NewMemorySnapshotStore()
	} else {
		snapshots, err = storage.NewSnapshotStore(cfg.Storage.DataPath)
	}
	if err != nil {
		log.Fatalf("❌ Ошибка открытия хранилища снимков: %v", err)
	}

	res, runErr := runDemo(ctx, cfg, pal, snapshots, m, demoOptions{
		Ticks:        *ticks,
		Seed:         *seed,
		LoadRadius:   *radius,
		ObserverY:    *observerY,
		CeilingAt:    *ceilingAt,
		TickInterval: *interval,
		OutDir:       *outDir,
		Singleplayer: !*multiplayer,
	})
	if runErr != nil {
		logging.Error("❌ Ошибка прогона: %v", runErr)
	}
	if res != nil {
		logging.Info("✅ Выполнено тиков: %d, наблюдатель в %v, измерение %d", res.Ticks, res.LastPosition, res.LastDimension)
		logging.Info("   Задачи: принято %d, выполнено %d, ошибок %d, отброшено %d",
			res.Executor.Submitted, res.Executor.Completed, res.Executor.Failed, res.Executor.Dropped)
		logging.Info("   Снимков в хранилище: %d", res.SavedChunks)
	}

	if err := snapshots.Close(); err != nil {
		logging.Error("❌ Ошибка закрытия хранилища: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки HTTP метрик: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки OpenTelemetry: %v", err)
	}

	logging.Info("👋 Прогон завершён")
	if runErr != nil {
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
}
