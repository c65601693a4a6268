package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/construction-schedule-api/internal/constants"
	"github.com/yukikurage/construction-schedule-api/internal/cpm"
	apierrors "github.com/yukikurage/construction-schedule-api/internal/errors"
	"github.com/yukikurage/construction-schedule-api/internal/models"
	"github.com/yukikurage/construction-schedule-api/internal/network"
	"github.com/yukikurage/construction-schedule-api/internal/repository"
	"github.com/yukikurage/construction-schedule-api/internal/template"
	"gorm.io/gorm"
)

var (
	// ErrPersistScheduleFailed is returned when the derived fields could not be
	// written after every retry. The transaction is rolled back.
	ErrPersistScheduleFailed = errors.New("failed to persist recomputed schedule")
	// ErrScheduleCorrupted is returned when stored rows do not form a valid network.
	ErrScheduleCorrupted = errors.New("stored schedule is not a valid activity network")
)

const derivedSavepoint = "schedule_derived"

// ScheduleOptions tunes a ScheduleService.
type ScheduleOptions struct {
	PersistAttempts int
	PersistBackoff  time.Duration
	Logger          *slog.Logger
}

// ScheduleService owns every change to a project's activity network. Each
// mutation validates against the in-memory graph, writes the structural change,
// recomputes the whole schedule and writes every activity's CPM fields inside
// one transaction, so readers never see a network and schedule that disagree.
type ScheduleService struct {
	repo            repository.ScheduleRepository
	locks           *projectLocks
	logger          *slog.Logger
	persistAttempts int
	persistBackoff  time.Duration
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(repo repository.ScheduleRepository, opts ScheduleOptions) *ScheduleService {
	if opts.PersistAttempts < 1 {
		opts.PersistAttempts = constants.DefaultPersistAttempts
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ScheduleService{
		repo:            repo,
		locks:           newProjectLocks(),
		logger:          opts.Logger.With("component", "schedule"),
		persistAttempts: opts.PersistAttempts,
		persistBackoff:  opts.PersistBackoff,
	}
}

// CreateActivityInput represents input for creating an activity
type CreateActivityInput struct {
	ActivityCode    string
	Name            string
	DurationDays    int
	PredecessorIDs  []uint64
	Status          models.ActivityStatus
	PercentComplete float64
	PlannedStart    *time.Time
	PlannedFinish   *time.Time
	AssignedTo      *string
	Notes           string
	SortOrder       *int
}

// UpdateActivityInput represents a partial update of an activity. Nil fields
// are left unchanged.
type UpdateActivityInput struct {
	ActivityCode    *string
	Name            *string
	DurationDays    *int
	PredecessorIDs  *[]uint64
	Status          *models.ActivityStatus
	PercentComplete *float64
	PlannedStart    *time.Time
	PlannedFinish   *time.Time
	ActualStart     *time.Time
	ActualFinish    *time.Time
	AssignedTo      *string
	Notes           *string
	SortOrder       *int
}

// CriticalPathReport is the critical path view of a project
type CriticalPathReport struct {
	ProjectFinish int
	Critical      []models.Activity
	NearCritical  []models.Activity
	// Activities is the whole network in sort order.
	Activities []models.Activity
}

// DelayImpactReport describes how delaying one activity moves the project finish
type DelayImpactReport struct {
	Impact   *cpm.DelayImpact
	Activity models.Activity
	Affected []models.Activity
}

// mutation applies one structural change. It validates against g, writes the
// change through tx, and leaves g describing the new network.
type mutation func(tx repository.ScheduleRepository, g *network.Graph, rows map[uint64]*models.Activity) error

// ListActivities returns a project's activities ordered by sort order.
func (s *ScheduleService) ListActivities(ctx context.Context, projectID uint64) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.repo.Transaction(ctx, func(tx repository.ScheduleRepository) error {
		var err error
		activities, err = tx.ListActivities(projectID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// CreateActivity adds an activity and returns it with its computed schedule.
func (s *ScheduleService) CreateActivity(ctx context.Context, projectID uint64, input CreateActivityInput) (*models.Activity, error) {
	activity := &models.Activity{
		ProjectID:       projectID,
		ActivityCode:    strings.TrimSpace(input.ActivityCode),
		Name:            strings.TrimSpace(input.Name),
		DurationDays:    input.DurationDays,
		Status:          input.Status,
		PercentComplete: input.PercentComplete,
		PlannedStart:    input.PlannedStart,
		PlannedFinish:   input.PlannedFinish,
		AssignedTo:      input.AssignedTo,
		Notes:           input.Notes,
	}
	if activity.Status == "" {
		activity.Status = models.ActivityStatusNotStarted
	}
	if err := validateActivityFields(activity); err != nil {
		return nil, err
	}

	activities, err := s.mutate(ctx, projectID, "create_activity", func(tx repository.ScheduleRepository, g *network.Graph, rows map[uint64]*models.Activity) error {
		if err := g.ValidatePredecessors(input.PredecessorIDs); err != nil {
			return err
		}

		if input.SortOrder != nil {
			activity.SortOrder = *input.SortOrder
		} else {
			activity.SortOrder = nextSortOrder(rows)
		}

		if err := tx.CreateActivity(activity); err != nil {
			return fmt.Errorf("failed to create activity: %w", err)
		}
		if err := tx.ReplacePredecessors(activity.ID, input.PredecessorIDs); err != nil {
			return fmt.Errorf("failed to save predecessors: %w", err)
		}

		return g.Add(network.Node{
			ID:           activity.ID,
			Code:         activity.ActivityCode,
			Duration:     activity.DurationDays,
			Predecessors: input.PredecessorIDs,
		})
	})
	if err != nil {
		return nil, err
	}

	return findActivity(activities, activity.ID)
}

// UpdateActivity applies a partial update and recomputes the schedule. The
// recompute runs even when no scheduling input changed.
func (s *ScheduleService) UpdateActivity(ctx context.Context, projectID, activityID uint64, input UpdateActivityInput) ([]models.Activity, error) {
	return s.mutate(ctx, projectID, "update_activity", func(tx repository.ScheduleRepository, g *network.Graph, rows map[uint64]*models.Activity) error {
		activity, ok := rows[activityID]
		if !ok {
			return apierrors.NotFoundf("activity %d not found", activityID)
		}

		if input.Status != nil && !activity.Status.CanTransitionTo(*input.Status) {
			return apierrors.Validationf("cannot change status from %s to %s", activity.Status, *input.Status)
		}

		applyActivityUpdate(activity, input)
		if err := validateActivityFields(activity); err != nil {
			return err
		}

		if err := g.SetDuration(activityID, activity.DurationDays); err != nil {
			return err
		}
		if err := g.SetCode(activityID, activity.ActivityCode); err != nil {
			return err
		}
		if input.PredecessorIDs != nil {
			if err := g.SetPredecessors(activityID, *input.PredecessorIDs); err != nil {
				return err
			}
			if err := tx.ReplacePredecessors(activityID, *input.PredecessorIDs); err != nil {
				return fmt.Errorf("failed to save predecessors: %w", err)
			}
		}

		if err := tx.UpdateActivity(activity); err != nil {
			return fmt.Errorf("failed to update activity: %w", err)
		}
		return nil
	})
}

// SetPredecessors replaces an activity's predecessor set.
func (s *ScheduleService) SetPredecessors(ctx context.Context, projectID, activityID uint64, predecessorIDs []uint64) ([]models.Activity, error) {
	return s.mutate(ctx, projectID, "set_predecessors", func(tx repository.ScheduleRepository, g *network.Graph, _ map[uint64]*models.Activity) error {
		if err := g.SetPredecessors(activityID, predecessorIDs); err != nil {
			return err
		}
		if err := tx.ReplacePredecessors(activityID, predecessorIDs); err != nil {
			return fmt.Errorf("failed to save predecessors: %w", err)
		}
		return nil
	})
}

// AddDependency makes predecessorID a predecessor of activityID.
func (s *ScheduleService) AddDependency(ctx context.Context, projectID, activityID, predecessorID uint64) ([]models.Activity, error) {
	return s.mutate(ctx, projectID, "add_dependency", func(tx repository.ScheduleRepository, g *network.Graph, _ map[uint64]*models.Activity) error {
		if err := g.AddPredecessor(activityID, predecessorID); err != nil {
			return err
		}
		if err := tx.AddDependency(activityID, predecessorID); err != nil {
			return fmt.Errorf("failed to save dependency: %w", err)
		}
		return nil
	})
}

// DeleteActivity removes an activity. Successors lose it as a predecessor and
// are rescheduled.
func (s *ScheduleService) DeleteActivity(ctx context.Context, projectID, activityID uint64) ([]models.Activity, error) {
	return s.mutate(ctx, projectID, "delete_activity", func(tx repository.ScheduleRepository, g *network.Graph, _ map[uint64]*models.Activity) error {
		if err := g.Remove(activityID); err != nil {
			return err
		}
		if err := tx.DeleteActivity(activityID); err != nil {
			return fmt.Errorf("failed to delete activity: %w", err)
		}
		return nil
	})
}

// LoadTemplate seeds an empty project with the residential build template.
func (s *ScheduleService) LoadTemplate(ctx context.Context, projectID uint64) ([]models.Activity, error) {
	// Fails fast without taking the project lock; the check under the lock
	// below still decides.
	existing, err := s.repo.CountActivities(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count activities: %w", err)
	}
	if existing > 0 {
		return nil, templateConflict(existing)
	}

	tpl, err := template.Residential()
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	return s.mutate(ctx, projectID, "load_template", func(tx repository.ScheduleRepository, g *network.Graph, _ map[uint64]*models.Activity) error {
		if g.Len() > 0 {
			return templateConflict(int64(g.Len()))
		}

		ids := make(map[string]uint64, len(tpl.Activities))
		for _, entry := range tpl.Activities {
			activity := &models.Activity{
				ProjectID:    projectID,
				ActivityCode: entry.Code,
				Name:         entry.Name,
				DurationDays: entry.DurationDays,
				Status:       models.ActivityStatusNotStarted,
				SortOrder:    entry.SortOrder(),
			}
			if err := tx.CreateActivity(activity); err != nil {
				return fmt.Errorf("failed to create template activity %s: %w", entry.Code, err)
			}

			preds := make([]uint64, 0, len(entry.Predecessors))
			for _, code := range entry.Predecessors {
				preds = append(preds, ids[code])
			}
			if err := tx.ReplacePredecessors(activity.ID, preds); err != nil {
				return fmt.Errorf("failed to save template predecessors of %s: %w", entry.Code, err)
			}
			if err := g.Add(network.Node{ID: activity.ID, Code: entry.Code, Duration: entry.DurationDays, Predecessors: preds}); err != nil {
				return err
			}
			ids[entry.Code] = activity.ID
		}
		return nil
	})
}

// Recalculate recomputes and rewrites the schedule without changing the network.
func (s *ScheduleService) Recalculate(ctx context.Context, projectID uint64) ([]models.Activity, error) {
	return s.mutate(ctx, projectID, "recalculate", func(repository.ScheduleRepository, *network.Graph, map[uint64]*models.Activity) error {
		return nil
	})
}

// CriticalPath reports the critical and near-critical activities, in
// topological order, and the project finish.
func (s *ScheduleService) CriticalPath(ctx context.Context, projectID uint64) (*CriticalPathReport, error) {
	var report *CriticalPathReport
	err := s.read(ctx, projectID, func(g *network.Graph, rows map[uint64]*models.Activity, result *cpm.Result) error {
		report = &CriticalPathReport{
			ProjectFinish: result.ProjectFinish,
			Critical:      pick(rows, result.CriticalPath),
			NearCritical:  pick(rows, result.NearCritical),
			Activities:    inSortOrder(rows),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// AnalyzeDelay reports the effect of delaying an activity by delayDays without
// changing anything.
func (s *ScheduleService) AnalyzeDelay(ctx context.Context, projectID, activityID uint64, delayDays int) (*DelayImpactReport, error) {
	var report *DelayImpactReport
	err := s.read(ctx, projectID, func(g *network.Graph, rows map[uint64]*models.Activity, result *cpm.Result) error {
		impact, err := result.DelayImpact(g, activityID, delayDays)
		if err != nil {
			return err
		}
		report = &DelayImpactReport{
			Impact:   impact,
			Activity: *rows[activityID],
			Affected: pick(rows, impact.AffectedActivities),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// mutate runs fn under the project lock and inside one transaction, then
// recomputes the full schedule and persists it before committing.
func (s *ScheduleService) mutate(ctx context.Context, projectID uint64, op string, fn mutation) ([]models.Activity, error) {
	unlock := s.locks.lock(projectID)
	defer unlock()

	logger := s.logger.With("project_id", projectID, "op", op)
	start := time.Now()

	var activities []models.Activity
	var result *cpm.Result
	err := s.repo.Transaction(ctx, func(tx repository.ScheduleRepository) error {
		if _, err := tx.LockProject(projectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFoundf("project %d not found", projectID)
			}
			return fmt.Errorf("failed to lock project: %w", err)
		}

		g, rows, err := s.loadGraph(tx, projectID)
		if err != nil {
			return err
		}

		if err := fn(tx, g, rows); err != nil {
			return err
		}

		result, err = cpm.Compute(g)
		if err != nil {
			return fmt.Errorf("failed to compute schedule: %w", err)
		}

		if err := s.persistDerived(ctx, tx, logger, result); err != nil {
			return err
		}

		activities, err = tx.ListActivities(projectID)
		if err != nil {
			return fmt.Errorf("failed to reload activities: %w", err)
		}
		return nil
	})
	if err != nil {
		if _, ok := apierrors.AsDomainError(err); ok {
			logger.Info("schedule change rejected", "error", err)
		} else {
			logger.Error("schedule change failed", "error", err)
		}
		return nil, err
	}

	logger.Info("schedule recomputed",
		"activity_count", len(activities),
		"project_finish", result.ProjectFinish,
		"critical_count", len(result.CriticalPath),
		"duration", time.Since(start),
	)
	return activities, nil
}

// read computes the schedule from the committed network without writing.
func (s *ScheduleService) read(ctx context.Context, projectID uint64, fn func(*network.Graph, map[uint64]*models.Activity, *cpm.Result) error) error {
	return s.repo.Transaction(ctx, func(tx repository.ScheduleRepository) error {
		g, rows, err := s.loadGraph(tx, projectID)
		if err != nil {
			return err
		}
		result, err := cpm.Compute(g)
		if err != nil {
			return fmt.Errorf("failed to compute schedule: %w", err)
		}
		return fn(g, rows, result)
	})
}

func (s *ScheduleService) loadGraph(tx repository.ScheduleRepository, projectID uint64) (*network.Graph, map[uint64]*models.Activity, error) {
	activities, err := tx.ListActivities(projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load activities: %w", err)
	}

	rows := make(map[uint64]*models.Activity, len(activities))
	nodes := make([]network.Node, len(activities))
	for i := range activities {
		a := &activities[i]
		rows[a.ID] = a
		nodes[i] = network.Node{
			ID:           a.ID,
			Code:         a.ActivityCode,
			Duration:     a.DurationDays,
			Predecessors: a.PredecessorIDs(),
		}
	}

	g, err := network.Load(nodes)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrScheduleCorrupted, err)
	}
	return g, rows, nil
}

// persistDerived writes every activity's CPM fields. A failed write rolls back
// to the savepoint and is retried with the same result; the schedule is not
// recomputed.
func (s *ScheduleService) persistDerived(ctx context.Context, tx repository.ScheduleRepository, logger *slog.Logger, result *cpm.Result) error {
	if err := tx.SavePoint(derivedSavepoint); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.persistAttempts; attempt++ {
		lastErr = writeDerived(tx, result)
		if lastErr == nil {
			return nil
		}

		if err := tx.RollbackTo(derivedSavepoint); err != nil {
			return fmt.Errorf("failed to roll back derived fields: %w", err)
		}
		logger.Warn("persisting schedule failed", "attempt", attempt, "max_attempts", s.persistAttempts, "error", lastErr)

		if attempt == s.persistAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.persistBackoff * time.Duration(attempt)):
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrPersistScheduleFailed, s.persistAttempts, lastErr)
}

func writeDerived(tx repository.ScheduleRepository, result *cpm.Result) error {
	for _, id := range result.Order {
		if err := tx.UpdateDerived(id, result.Activities[id]); err != nil {
			return fmt.Errorf("activity %d: %w", id, err)
		}
	}
	return nil
}

func applyActivityUpdate(a *models.Activity, input UpdateActivityInput) {
	if input.ActivityCode != nil {
		a.ActivityCode = strings.TrimSpace(*input.ActivityCode)
	}
	if input.Name != nil {
		a.Name = strings.TrimSpace(*input.Name)
	}
	if input.DurationDays != nil {
		a.DurationDays = *input.DurationDays
	}
	if input.Status != nil {
		a.Status = *input.Status
	}
	if input.PercentComplete != nil {
		a.PercentComplete = *input.PercentComplete
	}
	if input.PlannedStart != nil {
		a.PlannedStart = input.PlannedStart
	}
	if input.PlannedFinish != nil {
		a.PlannedFinish = input.PlannedFinish
	}
	if input.ActualStart != nil {
		a.ActualStart = input.ActualStart
	}
	if input.ActualFinish != nil {
		a.ActualFinish = input.ActualFinish
	}
	if input.AssignedTo != nil {
		a.AssignedTo = input.AssignedTo
	}
	if input.Notes != nil {
		a.Notes = *input.Notes
	}
	if input.SortOrder != nil {
		a.SortOrder = *input.SortOrder
	}
}

func validateActivityFields(a *models.Activity) error {
	switch {
	case a.ActivityCode == "":
		return apierrors.Validationf("activity_code is required")
	case utf8.RuneCountInString(a.ActivityCode) > 20:
		return apierrors.Validationf("activity_code must be at most 20 characters")
	case a.Name == "":
		return apierrors.Validationf("name is required")
	case utf8.RuneCountInString(a.Name) > 200:
		return apierrors.Validationf("name must be at most 200 characters")
	case a.DurationDays < 0:
		return apierrors.Validationf("duration_days must be >= 0, got %d", a.DurationDays)
	case a.PercentComplete < 0 || a.PercentComplete > 100:
		return apierrors.Validationf("percent_complete must be between 0 and 100, got %g", a.PercentComplete)
	case !a.Status.Valid():
		return apierrors.Validationf("unknown status %q", a.Status)
	}
	return nil
}

func nextSortOrder(rows map[uint64]*models.Activity) int {
	if len(rows) == 0 {
		return 10
	}
	highest := 0
	for _, a := range rows {
		if a.SortOrder > highest {
			highest = a.SortOrder
		}
	}
	return highest + 10
}

func findActivity(activities []models.Activity, id uint64) (*models.Activity, error) {
	for i := range activities {
		if activities[i].ID == id {
			return &activities[i], nil
		}
	}
	return nil, fmt.Errorf("activity %d missing after recompute", id)
}

func templateConflict(existing int64) error {
	return apierrors.Conflictf("project already has %d activities; the template can only be loaded into an empty schedule", existing)
}

func inSortOrder(rows map[uint64]*models.Activity) []models.Activity {
	out := make([]models.Activity, 0, len(rows))
	for _, a := range rows {
		out = append(out, *a)
	}
	slices.SortFunc(out, func(x, y models.Activity) int {
		if c := cmp.Compare(x.SortOrder, y.SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}

func pick(rows map[uint64]*models.Activity, ids []uint64) []models.Activity {
	out := make([]models.Activity, 0, len(ids))
	for _, id := range ids {
		if a, ok := rows[id]; ok {
			out = append(out, *a)
		}
	}
	return out
}
