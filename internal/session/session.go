package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Flowboard/internal/domain"
	"github.com/shaiso/Flowboard/internal/engine"
)

// Значения конфигурации по умолчанию.
const (
	// defaultDebounce — пауза после последней правки до отправки снапшота.
	defaultDebounce = 1000 * time.Millisecond

	// defaultNeutralAfter — через сколько индикатор Saved возвращается
	// в нейтральное состояние Ready.
	defaultNeutralAfter = 3 * time.Second
)

// Saver — контракт слоя персистентности (acceptor).
//
// Реализация обязана применять правило оптимистической блокировки
// атомарно: принять-и-инкрементировать, если expectedVersion равна
// хранимой версии, иначе вернуть конфликтный результат с актуальным
// серверным снапшотом. Конфликт — значение, не error; error означает
// транспортный сбой.
type Saver interface {
	Save(ctx context.Context, workflowID uuid.UUID, snapshot *domain.Workflow, expectedVersion int) (*domain.SaveResult, error)
}

// Config — конфигурация сессии.
type Config struct {
	// Saver — слой персистентности.
	Saver Saver

	// Workflow — начальный снапшот (становится локальным буфером правок).
	Workflow *domain.Workflow

	// User — идентификатор пользователя сессии (уходит в savedBy).
	User string

	// Debounce — пауза автосохранения (default: 1s).
	Debounce time.Duration

	// NeutralAfter — таймаут возврата Saved → Ready (default: 3s).
	NeutralAfter time.Duration

	// Logger — логгер сессии.
	Logger *slog.Logger

	// OnState — необязательный коллбек смены состояния.
	// Вызывается без удержания внутреннего мьютекса.
	OnState func(domain.SessionState)
}

// Session — сессия совместного редактирования одного workflow.
//
// Сессия владеет локальным буфером правок и ведёт машину состояний
//
//	Ready → Saving → {Saved, Conflict, Error} → Ready
//
// Правки перезапускают debounce-таймер; по его истечении отправляется
// полный текущий снапшот с последней известной версией. Правки во время
// Saving не блокируются — их подберёт следующий debounce-цикл, и
// отправляется всегда только самый свежий снапшот (очереди повторов нет).
type Session struct {
	saver        Saver
	user         string
	debounce     time.Duration
	neutralAfter time.Duration
	logger       *slog.Logger
	onState      func(domain.SessionState)

	mu    sync.Mutex
	wf    *domain.Workflow
	graph *engine.StepGraph

	state domain.SessionState

	// baseVersion — последняя принятая сервером версия (базис
	// оптимистической блокировки).
	baseVersion int

	// displayVersion — версия для отображения; обновляется и удалёнными
	// событиями, в отличие от baseVersion.
	displayVersion int
	lastSavedBy    string

	// dirty — есть правки, не попавшие в принятое сохранение.
	dirty  bool
	saving bool

	// conflict — конфликтный результат, пока не разрешён.
	conflict *domain.SaveResult

	remoteVars []string

	timer        *time.Timer
	neutralTimer *time.Timer
	closed       bool
}

// New создаёт сессию поверх начального снапшота workflow.
func New(cfg Config) (*Session, error) {
	if cfg.Saver == nil {
		return nil, ErrNoSaver
	}
	if cfg.Workflow == nil {
		return nil, ErrNoWorkflow
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.NeutralAfter <= 0 {
		cfg.NeutralAfter = defaultNeutralAfter
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Session{
		saver:          cfg.Saver,
		user:           cfg.User,
		debounce:       cfg.Debounce,
		neutralAfter:   cfg.NeutralAfter,
		logger:         cfg.Logger,
		onState:        cfg.OnState,
		wf:             cfg.Workflow,
		graph:          engine.NewStepGraph(cfg.Workflow),
		state:          domain.SessionStateReady,
		baseVersion:    cfg.Workflow.Version,
		displayVersion: cfg.Workflow.Version,
	}
	return s, nil
}

// Edit применяет правку к локальному буферу через StepGraph и
// перезапускает debounce-таймер.
//
// В состоянии Conflict правки применяются к буферу, но автосохранение
// приостановлено до явного разрешения конфликта.
func (s *Session) Edit(fn func(*engine.StepGraph)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	fn(s.graph)
	s.dirty = true

	if !s.state.IsBlocked() {
		s.restartDebounceLocked()
	}
	s.mu.Unlock()
	return nil
}

// restartDebounceLocked перезапускает debounce-таймер. mu должен быть
// захвачен.
func (s *Session) restartDebounceLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flush)
}

// flush отправляет текущий снапшот acceptor'у. Вызывается таймером
// debounce и действием Force.
func (s *Session) flush() {
	s.mu.Lock()
	if s.closed || s.state.IsBlocked() {
		s.mu.Unlock()
		return
	}

	snapshot := s.wf.Snapshot()
	snapshot.UpdatedBy = s.user
	expected := s.baseVersion
	s.dirty = false
	s.saving = true
	s.setStateLocked(domain.SessionStateSaving)
	s.mu.Unlock()

	s.logger.Debug("submitting snapshot",
		"workflow_id", snapshot.ID,
		"expected_version", expected,
	)

	res, err := s.saver.Save(context.Background(), snapshot.ID, snapshot, expected)

	s.mu.Lock()
	s.saving = false

	if err != nil {
		// Транспортный сбой: без очереди повторов — следующая правка
		// перезапустит цикл с нуля.
		s.logger.Warn("save transport failure", "error", err)
		s.dirty = true
		s.setStateLocked(domain.SessionStateError)
		s.mu.Unlock()
		return
	}

	switch res.Status {
	case domain.SaveStatusSaved:
		s.baseVersion = res.Version
		s.displayVersion = res.Version
		s.lastSavedBy = res.SavedBy
		s.setStateLocked(domain.SessionStateSaved)
		s.startNeutralTimerLocked()

	case domain.SaveStatusConflict:
		// Чужое сохранение опередило: автосохранение приостанавливается,
		// серверный снапшот доступен для разрешения конфликта.
		s.conflict = res
		s.dirty = true
		s.stopTimerLocked()
		s.setStateLocked(domain.SessionStateConflict)

	default:
		s.dirty = true
		s.setStateLocked(domain.SessionStateError)
	}
	s.mu.Unlock()
}

// startNeutralTimerLocked взводит таймер возврата Saved → Ready.
func (s *Session) startNeutralTimerLocked() {
	if s.neutralTimer != nil {
		s.neutralTimer.Stop()
	}
	s.neutralTimer = time.AfterFunc(s.neutralAfter, func() {
		s.mu.Lock()
		if !s.closed && s.state == domain.SessionStateSaved {
			s.setStateLocked(domain.SessionStateReady)
		}
		s.mu.Unlock()
	})
}

// stopTimerLocked останавливает debounce-таймер.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// setStateLocked меняет состояние и уведомляет подписчика.
// mu должен быть захвачен; коллбек вызывается в отдельной горутине,
// чтобы подписчик мог обращаться к сессии.
func (s *Session) setStateLocked(state domain.SessionState) {
	if s.state == state {
		return
	}
	s.state = state
	if s.onState != nil {
		go s.onState(state)
	}
}

// --- Разрешение конфликта ---

// Refresh отбрасывает локальные правки и принимает серверный снапшот
// как новый буфер (терминальное действие "перезагрузить").
func (s *Session) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflict == nil {
		return ErrNoConflict
	}
	if s.conflict.Snapshot == nil {
		return ErrNoConflictSnapshot
	}

	s.wf = s.conflict.Snapshot.Snapshot()
	s.graph = engine.NewStepGraph(s.wf)
	s.baseVersion = s.conflict.Version
	s.displayVersion = s.conflict.Version
	s.conflict = nil
	s.dirty = false
	s.setStateLocked(domain.SessionStateReady)
	return nil
}

// Force принимает серверную версию как новый базис и немедленно
// пересабмитит локальное содержимое (last-writer-wins).
func (s *Session) Force() error {
	s.mu.Lock()
	if s.conflict == nil {
		s.mu.Unlock()
		return ErrNoConflict
	}

	s.baseVersion = s.conflict.Version
	s.conflict = nil
	s.setStateLocked(domain.SessionStateReady)
	s.mu.Unlock()

	s.flush()
	return nil
}

// Dismiss возвращает сессию в Ready, не меняя базис версии.
// Следующее сохранение снова конфликтнёт, если расхождение не устранено.
func (s *Session) Dismiss() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflict == nil {
		return ErrNoConflict
	}

	s.conflict = nil
	s.setStateLocked(domain.SessionStateReady)

	// Накопленные правки не должны лежать несохранёнными до следующей
	// правки: автосохранение взводится заново.
	if s.dirty {
		s.restartDebounceLocked()
	}
	return nil
}

// --- Канал удалённых обновлений ---

// HandleRemote обрабатывает событие сохранения другого клиента.
//
// Буфер незавершённых правок никогда не перезаписывается удалённым
// событием: обновляется только отображаемая версия и метаданные.
// Содержимое сводится исключительно явными действиями разрешения
// конфликта (refresh/force).
func (s *Session) HandleRemote(res *domain.SaveResult) {
	if res == nil || res.Status != domain.SaveStatusSaved {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.displayVersion = res.Version
	s.lastSavedBy = res.SavedBy

	s.logger.Debug("remote save observed",
		"version", res.Version,
		"saved_by", res.SavedBy,
		"dirty", s.dirty,
	)
}

// HandleDisconnect переводит сессию в Error при потере транспорта.
// Запланированное автосохранение сбрасывается.
func (s *Session) HandleDisconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state.IsBlocked() {
		return
	}

	s.stopTimerLocked()
	s.setStateLocked(domain.SessionStateError)
}

// HandleReconnect возвращает сессию в Ready после восстановления
// транспорта. Очередь повторов не проигрывается: следующая правка
// запустит debounce с нуля.
func (s *Session) HandleReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != domain.SessionStateError {
		return
	}

	s.setStateLocked(domain.SessionStateReady)
}

// --- Переменные ---

// SetRemoteVariables запоминает имена переменных, известные серверу.
func (s *Session) SetRemoteVariables(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remoteVars = append([]string(nil), names...)
}

// Variables возвращает объединённый список имён переменных:
// локально отсканированные (приоритет) плюс серверные, не
// перекрытые локальными.
func (s *Session) Variables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := s.graph.Registry().Names()
	seen := make(map[string]bool, len(local))
	for _, name := range local {
		seen[name] = true
	}

	out := local
	for _, name := range s.remoteVars {
		if !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	return out
}

// --- Доступ к состоянию ---

// State возвращает текущее состояние сессии.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Version возвращает последнюю принятую сервером версию (базис).
func (s *Session) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseVersion
}

// DisplayVersion возвращает отображаемую версию (учитывает удалённые
// сохранения).
func (s *Session) DisplayVersion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayVersion
}

// LastSavedBy возвращает автора последнего наблюдаемого сохранения.
func (s *Session) LastSavedBy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSavedBy
}

// Dirty возвращает true, если есть несохранённые правки.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Conflict возвращает неразрешённый конфликтный результат или nil.
func (s *Session) Conflict() *domain.SaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflict
}

// Snapshot возвращает копию локального буфера правок.
func (s *Session) Snapshot() *domain.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wf.Snapshot()
}

// Close останавливает таймеры сессии. Запрос в полёте не отменяется:
// его результат обрабатывается, но новые сохранения не планируются.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	if s.neutralTimer != nil {
		s.neutralTimer.Stop()
	}
}
