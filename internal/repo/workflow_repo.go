package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Flowboard/internal/domain"
)

// WorkflowRepo — репозиторий workflows и workflow_versions.
//
// Save реализует правило оптимистической блокировки атомарно:
// строка workflow блокируется (FOR UPDATE), ожидаемая версия
// сравнивается с хранимой, и сохранение либо принимается с
// инкрементом версии, либо возвращается конфликтный результат
// с актуальным серверным снапшотом. Конфликт — значение, не error.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

// --- Workflow CRUD ---

// Create создаёт новый workflow с версией 0.
func (r *WorkflowRepo) Create(ctx context.Context, wf *domain.Workflow) error {
	stepsJSON, err := json.Marshal(wf.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		INSERT INTO workflows (id, title, description, mode, status, version, steps, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, NOW(), NOW())
		RETURNING version, created_at, updated_at
	`
	err = r.pool.QueryRow(ctx, query,
		wf.ID,
		wf.Title,
		wf.Description,
		wf.Mode,
		wf.Status,
		stepsJSON,
		wf.UpdatedBy,
	).Scan(&wf.Version, &wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// GetByID возвращает workflow по ID.
func (r *WorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	query := `
		SELECT id, title, description, mode, status, version, steps, updated_by, created_at, updated_at
		FROM workflows
		WHERE id = $1
	`
	wf, err := scanWorkflow(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow by id: %w", err)
	}
	return wf, nil
}

// List возвращает список всех workflows без шагов (метаданные).
func (r *WorkflowRepo) List(ctx context.Context) ([]domain.Workflow, error) {
	query := `
		SELECT id, title, description, mode, status, version, updated_by, created_at, updated_at
		FROM workflows
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		var wf domain.Workflow
		if err := rows.Scan(
			&wf.ID,
			&wf.Title,
			&wf.Description,
			&wf.Mode,
			&wf.Status,
			&wf.Version,
			&wf.UpdatedBy,
			&wf.CreatedAt,
			&wf.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

// Delete удаляет workflow (каскадно удалит историю версий).
func (r *WorkflowRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM workflows WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Сохранение с оптимистической блокировкой ---

// Save применяет снапшот поверх ожидаемой версии expectedVersion.
//
// Если ожидаемая версия совпала с хранимой, снапшот принимается,
// версия инкрементируется и пополняется история версий. Иначе
// возвращается конфликтный результат с хранимым снапшотом и автором
// опередившего сохранения. error возвращается только при сбое БД.
func (r *WorkflowRepo) Save(ctx context.Context, id uuid.UUID, snapshot *domain.Workflow, expectedVersion int) (*domain.SaveResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin save tx: %w", err)
	}
	defer tx.Rollback(ctx)

	stored, err := scanWorkflow(tx.QueryRow(ctx, `
		SELECT id, title, description, mode, status, version, steps, updated_by, created_at, updated_at
		FROM workflows
		WHERE id = $1
		FOR UPDATE
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock workflow: %w", err)
	}

	if stored.Version != expectedVersion {
		return &domain.SaveResult{
			Status:          domain.SaveStatusConflict,
			WorkflowID:      id,
			Version:         stored.Version,
			ConflictingUser: stored.UpdatedBy,
			Snapshot:        stored,
			Timestamp:       stored.UpdatedAt,
		}, nil
	}

	stepsJSON, err := json.Marshal(snapshot.Steps)
	if err != nil {
		return nil, fmt.Errorf("marshal steps: %w", err)
	}

	newVersion := stored.Version + 1
	var updatedAt time.Time
	err = tx.QueryRow(ctx, `
		UPDATE workflows
		SET title = $2, description = $3, mode = $4, version = $5, steps = $6, updated_by = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, id,
		snapshot.Title,
		snapshot.Description,
		snapshot.Mode,
		newVersion,
		stepsJSON,
		snapshot.UpdatedBy,
	).Scan(&updatedAt)
	if err != nil {
		return nil, fmt.Errorf("update workflow: %w", err)
	}

	accepted := snapshot.Snapshot()
	accepted.ID = id
	accepted.Version = newVersion
	accepted.UpdatedAt = updatedAt

	snapshotJSON, err := json.Marshal(accepted)
	if err != nil {
		return nil, fmt.Errorf("marshal version snapshot: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO workflow_versions (workflow_id, version, saved_by, snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, newVersion, snapshot.UpdatedBy, snapshotJSON, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert workflow version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit save tx: %w", err)
	}

	return &domain.SaveResult{
		Status:     domain.SaveStatusSaved,
		WorkflowID: id,
		Version:    newVersion,
		SavedBy:    snapshot.UpdatedBy,
		Timestamp:  updatedAt,
		Snapshot:   accepted,
	}, nil
}

// Publish переводит workflow в статус PUBLISHED.
// Структурная валидация выполняется вызывающей стороной до записи.
func (r *WorkflowRepo) Publish(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE workflows
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, domain.WorkflowStatusPublished)
	if err != nil {
		return fmt.Errorf("publish workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- История версий ---

// ListVersions возвращает метаданные версий workflow (без снапшотов),
// новые первыми.
func (r *WorkflowRepo) ListVersions(ctx context.Context, workflowID uuid.UUID) ([]domain.WorkflowVersion, error) {
	query := `
		SELECT workflow_id, version, saved_by, created_at
		FROM workflow_versions
		WHERE workflow_id = $1
		ORDER BY version DESC
	`
	rows, err := r.pool.Query(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list workflow versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.WorkflowVersion
	for rows.Next() {
		var wv domain.WorkflowVersion
		if err := rows.Scan(
			&wv.WorkflowID,
			&wv.Version,
			&wv.SavedBy,
			&wv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan workflow version: %w", err)
		}
		versions = append(versions, wv)
	}
	return versions, rows.Err()
}

// GetVersion возвращает конкретную версию со снапшотом.
func (r *WorkflowRepo) GetVersion(ctx context.Context, workflowID uuid.UUID, version int) (*domain.WorkflowVersion, error) {
	query := `
		SELECT workflow_id, version, saved_by, snapshot, created_at
		FROM workflow_versions
		WHERE workflow_id = $1 AND version = $2
	`
	var wv domain.WorkflowVersion
	var snapshotJSON []byte
	err := r.pool.QueryRow(ctx, query, workflowID, version).Scan(
		&wv.WorkflowID,
		&wv.Version,
		&wv.SavedBy,
		&snapshotJSON,
		&wv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow version: %w", err)
	}

	if err := json.Unmarshal(snapshotJSON, &wv.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal version snapshot: %w", err)
	}
	return &wv, nil
}

// PruneVersions удаляет старые версии workflow, оставляя keep последних.
// Возвращает количество удалённых записей.
func (r *WorkflowRepo) PruneVersions(ctx context.Context, workflowID uuid.UUID, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	query := `
		DELETE FROM workflow_versions
		WHERE workflow_id = $1
		  AND version < (
			SELECT COALESCE(MAX(version), 0) - $2 + 1
			FROM workflow_versions
			WHERE workflow_id = $1
		  )
	`
	result, err := r.pool.Exec(ctx, query, workflowID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune workflow versions: %w", err)
	}
	return result.RowsAffected(), nil
}

// WorkflowIDs возвращает идентификаторы всех workflows.
// Используется фоновой чисткой истории.
func (r *WorkflowRepo) WorkflowIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM workflows`)
	if err != nil {
		return nil, fmt.Errorf("list workflow ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan workflow id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanWorkflow читает полную строку workflow, включая шаги.
func scanWorkflow(row pgx.Row) (*domain.Workflow, error) {
	var wf domain.Workflow
	var stepsJSON []byte
	err := row.Scan(
		&wf.ID,
		&wf.Title,
		&wf.Description,
		&wf.Mode,
		&wf.Status,
		&wf.Version,
		&stepsJSON,
		&wf.UpdatedBy,
		&wf.CreatedAt,
		&wf.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stepsJSON, &wf.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	return &wf, nil
}
