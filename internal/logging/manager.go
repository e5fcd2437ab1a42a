package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Компоненты карты с собственными файлами логов
const (
	ComponentTracker  = "tracker"
	ComponentRender   = "render"
	ComponentExecutor = "executor"
	ComponentStorage  = "storage"
)

// MapComponents все компоненты, которые настраивает демо
var MapComponents = []string{ComponentTracker, ComponentRender, ComponentExecutor, ComponentStorage}

// LoggerManager хранит логгеры компонентов карты
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{loggers: make(map[string]*Logger)}
	})
	return globalManager
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("создание логгера %s: %w", component, err)
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер компонента. Если файл логов не открылся,
// компонент пишет только в консоль.
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil {
		return newConsoleLogger(component)
	}
	return logger
}

// Components возвращает имена созданных логгеров по алфавиту
func (lm *LoggerManager) Components() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	names := make([]string, 0, len(lm.loggers))
	for name := range lm.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetLogLevel меняет пороги консоли и файла у существующего логгера компонента
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("логгер компонента %s не найден", component)
	}

	logger.mu.Lock()
	logger.minConsoleLevel = consoleLevel
	logger.minFileLevel = fileLevel
	logger.mu.Unlock()
	return nil
}

// ConfigureComponents создаёт логгеры перечисленных компонентов и задаёт им пороги.
// Компоненты, чей файл логов не открылся, возвращаются в ошибке.
func (lm *LoggerManager) ConfigureComponents(consoleLevel, fileLevel LogLevel, components ...string) error {
	var errs []error
	for _, component := range components {
		if _, err := lm.GetLogger(component); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := lm.SetLogLevel(component, consoleLevel, fileLevel); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CloseAll закрывает все логгеры и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("закрытие логгера %s: %w", component, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// GetComponentLogger возвращает логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetTrackerLogger() *Logger  { return GetComponentLogger(ComponentTracker) }
func GetRenderLogger() *Logger   { return GetComponentLogger(ComponentRender) }
func GetExecutorLogger() *Logger { return GetComponentLogger(ComponentExecutor) }
func GetStorageLogger() *Logger  { return GetComponentLogger(ComponentStorage) }
