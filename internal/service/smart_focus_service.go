package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"interntrack/internal/model"
	"interntrack/pkg/metrics"
	"interntrack/pkg/rbac"
)

const nothingOpen = "Nothing open"

// SmartFocusService suggests which open tasks a user should tackle next.
type SmartFocusService struct {
	tasks          TaskStore
	advisor        FocusAdvisor
	cache          FocusCache
	group          singleflight.Group
	maxTasks       int
	maxSuggestions int
	logger         *zap.Logger
	now            func() time.Time
}

// NewSmartFocusService builds the service; advisor may be nil to always use the heuristic.
func NewSmartFocusService(tasks TaskStore, advisor FocusAdvisor, cache FocusCache, maxTasks, maxSuggestions int, logger *zap.Logger) *SmartFocusService {
	if maxTasks <= 0 {
		maxTasks = 30
	}
	if maxSuggestions <= 0 {
		maxSuggestions = 3
	}
	return &SmartFocusService{
		tasks:          tasks,
		advisor:        advisor,
		cache:          cache,
		maxTasks:       maxTasks,
		maxSuggestions: maxSuggestions,
		logger:         logger,
		now:            time.Now,
	}
}

// Suggest returns the cached result unless refresh is set.
func (s *SmartFocusService) Suggest(ctx context.Context, actor model.Actor, refresh bool) (*model.SmartFocus, error) {
	if !actor.Can(rbac.PermissionUseSmartFocus) {
		return nil, ErrForbidden
	}

	if !refresh && s.cache != nil {
		cached, err := s.cache.Get(ctx, actor.UserID)
		if err != nil {
			s.logger.Warn("Smart focus cache read failed", zap.Error(err))
		} else if cached != nil {
			cached.Cached = true
			metrics.IncrementSmartFocus("cache")
			return cached, nil
		}
	}

	// concurrent callers for one user share a single generation
	v, err, _ := s.group.Do(strconv.FormatInt(actor.UserID, 10), func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), actor.UserID)
	})
	if err != nil {
		return nil, err
	}
	focus := *v.(*model.SmartFocus)
	return &focus, nil
}

func (s *SmartFocusService) generate(ctx context.Context, userID int64) (*model.SmartFocus, error) {
	open, err := s.tasks.List(ctx, model.TaskFilter{
		Statuses:   []string{model.TaskStatusPending, model.TaskStatusInProgress, model.TaskStatusOverdue},
		AssigneeID: &userID,
		Sort:       "focus",
		Page:       model.Page{Limit: s.maxTasks},
	})
	if err != nil {
		return nil, storeErr(err)
	}

	now := s.now()
	focus := &model.SmartFocus{UserID: userID, GeneratedAt: now.UTC()}
	if len(open) == 0 {
		focus.Summary = nothingOpen
		focus.Suggestions = []model.FocusSuggestion{}
		focus.Source = model.FocusSourceHeuristic
		metrics.IncrementSmartFocus(focus.Source)
		return focus, nil
	}

	if !s.fromAdvisor(ctx, focus, open, now) {
		focus.Source = model.FocusSourceHeuristic
		focus.Suggestions = Heuristic(open, now, s.maxSuggestions)
		focus.Summary = heuristicSummary(len(open), focus.Suggestions)
	}
	metrics.IncrementSmartFocus(focus.Source)

	if s.cache != nil {
		if err := s.cache.Set(ctx, focus); err != nil {
			s.logger.Warn("Smart focus cache write failed", zap.Error(err))
		}
	}
	s.logger.Info("Smart focus generated",
		zap.Int64("user_id", userID),
		zap.String("source", focus.Source),
		zap.Int("open_tasks", len(open)),
		zap.Int("suggestions", len(focus.Suggestions)),
	)
	return focus, nil
}

// fromAdvisor fills focus from the LLM; false means fall back to the heuristic.
func (s *SmartFocusService) fromAdvisor(ctx context.Context, focus *model.SmartFocus, open []model.Task, now time.Time) bool {
	if s.advisor == nil {
		return false
	}
	answer, err := s.advisor.Advise(ctx, FocusRequest{Today: now, Tasks: open, MaxSuggestions: s.maxSuggestions})
	if err != nil {
		s.logger.Warn("LLM advisor failed, using heuristic",
			zap.Int64("user_id", focus.UserID),
			zap.Error(err),
		)
		return false
	}

	byID := make(map[int64]model.Task, len(open))
	for _, t := range open {
		byID[t.ID] = t
	}
	seen := make(map[int64]bool)
	var suggestions []model.FocusSuggestion
	for _, sug := range answer.Suggestions {
		t, ok := byID[sug.TaskID]
		if !ok || seen[sug.TaskID] {
			continue
		}
		seen[sug.TaskID] = true
		suggestions = append(suggestions, model.FocusSuggestion{
			TaskID:   t.ID,
			Title:    t.Title,
			Reason:   strings.TrimSpace(sug.Reason),
			Priority: t.Priority,
			DueDate:  t.DueDate,
		})
		if len(suggestions) == s.maxSuggestions {
			break
		}
	}
	if len(suggestions) == 0 {
		s.logger.Warn("LLM advisor returned no usable suggestions", zap.Int64("user_id", focus.UserID))
		return false
	}

	focus.Source = model.FocusSourceLLM
	focus.Suggestions = suggestions
	focus.Summary = strings.TrimSpace(answer.Summary)
	if focus.Summary == "" {
		focus.Summary = heuristicSummary(len(open), suggestions)
	}
	return true
}

var priorityScore = map[string]int{
	model.PriorityUrgent: 40,
	model.PriorityHigh:   30,
	model.PriorityMedium: 20,
	model.PriorityLow:    10,
}

// Heuristic ranks tasks by overdue state, priority, due-date proximity and
// progress. Ties go to the earlier due date, then the lower id.
func Heuristic(tasks []model.Task, now time.Time, limit int) []model.FocusSuggestion {
	type scored struct {
		task    model.Task
		score   int
		reasons []string
	}
	list := make([]scored, 0, len(tasks))
	for _, t := range tasks {
		sc := scored{task: t}
		days, hasDue := daysUntil(t.DueDate, now)
		if t.Status == model.TaskStatusOverdue || (hasDue && days < 0) {
			sc.score += 100
			sc.reasons = append(sc.reasons, "overdue")
		}
		sc.score += priorityScore[t.Priority]
		if t.Priority == model.PriorityUrgent || t.Priority == model.PriorityHigh {
			sc.reasons = append(sc.reasons, t.Priority+" priority")
		}
		if hasDue {
			switch {
			case days == 0:
				sc.score += 30
				sc.reasons = append(sc.reasons, "due today")
			case days > 0 && days <= 3:
				sc.score += 20
				sc.reasons = append(sc.reasons, fmt.Sprintf("due in %d days", days))
			case days > 3 && days <= 7:
				sc.score += 10
				sc.reasons = append(sc.reasons, "due this week")
			}
		}
		if t.Status == model.TaskStatusInProgress {
			sc.score += 5
			sc.reasons = append(sc.reasons, "already in progress")
		}
		list = append(list, sc)
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !sameDue(a.task.DueDate, b.task.DueDate) {
			if a.task.DueDate == nil {
				return false
			}
			if b.task.DueDate == nil {
				return true
			}
			return a.task.DueDate.Before(*b.task.DueDate)
		}
		return a.task.ID < b.task.ID
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]model.FocusSuggestion, len(list))
	for i, sc := range list {
		reason := strings.Join(sc.reasons, ", ")
		if reason == "" {
			reason = "next in line"
		}
		out[i] = model.FocusSuggestion{
			TaskID:   sc.task.ID,
			Title:    sc.task.Title,
			Reason:   reason,
			Priority: sc.task.Priority,
			DueDate:  sc.task.DueDate,
			Score:    sc.score,
		}
	}
	return out
}

// daysUntil compares calendar dates in UTC.
func daysUntil(due *time.Time, now time.Time) (int, bool) {
	if due == nil {
		return 0, false
	}
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	n := now.UTC()
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(today).Hours() / 24), true
}

func sameDue(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func heuristicSummary(open int, suggestions []model.FocusSuggestion) string {
	if len(suggestions) == 0 {
		return nothingOpen
	}
	noun := "tasks"
	if open == 1 {
		noun = "task"
	}
	return fmt.Sprintf("%d open %s. Start with %q.", open, noun, suggestions[0].Title)
}
