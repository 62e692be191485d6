package testutil

import (
	"context"
	"sort"
	"strings"
	"time"

	"interntrack/internal/model"
	"interntrack/internal/repository"
)

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

type UserStore struct{ rows[model.User] }

func (s *UserStore) Create(_ context.Context, u *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, repository.ErrDuplicate
		}
	}
	c := *u
	c.ID = s.nextID()
	c.Email = strings.ToLower(c.Email)
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	s.put(c.ID, c)
	return &c, nil
}

func (s *UserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) List(_ context.Context, f model.UserFilter) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, u := range s.sorted() {
		if (f.Role == "" || u.Role == f.Role) && eq(f.Active, u.Active) &&
			(f.Query == "" || contains(u.Name+" "+u.Email, f.Query)) {
			out = append(out, u)
		}
	}
	return window(out, f.Page), nil
}

func (s *UserStore) Update(_ context.Context, u *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(u.ID); err != nil {
		return nil, err
	}
	c := *u
	c.UpdatedAt = time.Now()
	s.put(c.ID, c)
	return &c, nil
}

func (s *UserStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

func (s *UserStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data), nil
}

type ProjectStore struct{ rows[model.Project] }

func (s *ProjectStore) Create(_ context.Context, p *model.Project) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	c.ID = s.nextID()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	s.put(c.ID, c)
	return &c, nil
}

func (s *ProjectStore) GetByID(_ context.Context, id int64) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *ProjectStore) List(_ context.Context, f model.ProjectFilter) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Project
	for _, p := range s.sorted() {
		if (f.Status == "" || p.Status == f.Status) && eqPtr(f.OwnerID, p.OwnerID) &&
			(f.Query == "" || contains(p.Name+" "+p.Description, f.Query)) {
			out = append(out, p)
		}
	}
	return window(out, f.Page), nil
}

func (s *ProjectStore) Update(_ context.Context, p *model.Project) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(p.ID); err != nil {
		return nil, err
	}
	c := *p
	s.put(c.ID, c)
	return &c, nil
}

func (s *ProjectStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

type TaskStore struct{ rows[model.Task] }

func (s *TaskStore) Create(_ context.Context, t *model.Task) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *t
	c.ID = s.nextID()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	s.put(c.ID, c)
	return &c, nil
}

func (s *TaskStore) GetByID(_ context.Context, id int64) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *TaskStore) List(_ context.Context, f model.TaskFilter) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Task
	for _, t := range s.sorted() {
		if len(f.Statuses) > 0 && !oneOf(t.Status, f.Statuses) {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if !eqPtr(f.ProjectID, t.ProjectID) || !eqPtr(f.AssigneeID, t.AssigneeID) {
			continue
		}
		if f.DueBefore != nil && (t.DueDate == nil || t.DueDate.After(*f.DueBefore)) {
			continue
		}
		if f.DueAfter != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueAfter)) {
			continue
		}
		if f.Query != "" && !contains(t.Title+" "+t.Description, f.Query) {
			continue
		}
		out = append(out, t)
	}
	if f.Sort == "focus" {
		sortFocus(out, time.Now())
	}
	return window(out, f.Page), nil
}

// sortFocus mirrors the repository's "focus" order: overdue first, then
// nearest due date, then priority.
func sortFocus(tasks []model.Task, now time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	overdue := func(t model.Task) bool {
		return t.Status == model.TaskStatusOverdue || (t.DueDate != nil && t.DueDate.Before(today))
	}
	rank := map[string]int{model.PriorityUrgent: 0, model.PriorityHigh: 1, model.PriorityMedium: 2}
	prio := func(t model.Task) int {
		if r, ok := rank[t.Priority]; ok {
			return r
		}
		return 3
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if oa, ob := overdue(a), overdue(b); oa != ob {
			return oa
		}
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		if pa, pb := prio(a), prio(b); pa != pb {
			return pa < pb
		}
		return a.ID < b.ID
	})
}

func (s *TaskStore) Update(_ context.Context, t *model.Task) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(t.ID); err != nil {
		return nil, err
	}
	c := *t
	c.UpdatedAt = time.Now()
	s.put(c.ID, c)
	return &c, nil
}

func (s *TaskStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

func (s *TaskStore) MarkOverdue(_ context.Context, today time.Time) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Task
	for _, t := range s.sorted() {
		open := t.Status == model.TaskStatusPending || t.Status == model.TaskStatusInProgress
		if open && t.DueDate != nil && t.DueDate.Before(today) {
			t.Status = model.TaskStatusOverdue
			s.put(t.ID, t)
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *TaskStore) CountByStatus(_ context.Context, assigneeID *int64) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{
		model.TaskStatusPending:    0,
		model.TaskStatusInProgress: 0,
		model.TaskStatusCompleted:  0,
		model.TaskStatusOverdue:    0,
	}
	for _, t := range s.data {
		if eqPtr(assigneeID, t.AssigneeID) {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type TimeLogStore struct{ rows[model.TimeLog] }

func (s *TimeLogStore) Create(_ context.Context, l *model.TimeLog) (*model.TimeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.EndedAt == nil {
		for _, existing := range s.data {
			if existing.UserID == l.UserID && existing.Running() {
				return nil, repository.ErrDuplicate
			}
		}
	}
	c := *l
	c.ID = s.nextID()
	c.CreatedAt = time.Now()
	s.put(c.ID, c)
	return &c, nil
}

func (s *TimeLogStore) GetByID(_ context.Context, id int64) (*model.TimeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *TimeLogStore) List(_ context.Context, f model.TimeLogFilter) ([]model.TimeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TimeLog
	for _, l := range s.sorted() {
		if eq(f.UserID, l.UserID) && eqPtr(f.TaskID, l.TaskID) && inRange(l.StartedAt, f.From, f.To) {
			out = append(out, l)
		}
	}
	return window(out, f.Page), nil
}

func (s *TimeLogStore) Update(_ context.Context, l *model.TimeLog) (*model.TimeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(l.ID); err != nil {
		return nil, err
	}
	c := *l
	s.put(c.ID, c)
	return &c, nil
}

func (s *TimeLogStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

func (s *TimeLogStore) Running(_ context.Context, userID int64) (*model.TimeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.sorted() {
		if l.UserID == userID && l.Running() {
			return &l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *TimeLogStore) StaleRunning(_ context.Context, cutoff time.Time) ([]model.TimeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TimeLog
	for _, l := range s.sorted() {
		if l.Running() && l.StartedAt.Before(cutoff) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *TimeLogStore) Summary(_ context.Context, userID int64, from, to *time.Time) ([]model.TaskMinutes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTask := map[int64]*model.TaskMinutes{}
	var order []int64
	for _, l := range s.sorted() {
		if l.UserID != userID || l.Running() || !inRange(l.StartedAt, from, to) {
			continue
		}
		var key int64
		if l.TaskID != nil {
			key = *l.TaskID
		}
		tm, ok := byTask[key]
		if !ok {
			tm = &model.TaskMinutes{TaskID: l.TaskID}
			byTask[key] = tm
			order = append(order, key)
		}
		tm.Minutes += l.Minutes
	}
	out := make([]model.TaskMinutes, 0, len(order))
	for _, k := range order {
		out = append(out, *byTask[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Minutes > out[j].Minutes })
	return out, nil
}

func (s *TimeLogStore) MinutesSince(_ context.Context, userID *int64, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, l := range s.data {
		if (userID == nil || l.UserID == *userID) && !l.Running() && !l.StartedAt.Before(since) {
			total += l.Minutes
		}
	}
	return total, nil
}

type DeliverableStore struct{ rows[model.Deliverable] }

func (s *DeliverableStore) Create(_ context.Context, d *model.Deliverable) (*model.Deliverable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *d
	c.ID = s.nextID()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	s.put(c.ID, c)
	return &c, nil
}

func (s *DeliverableStore) GetByID(_ context.Context, id int64) (*model.Deliverable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *DeliverableStore) List(_ context.Context, f model.DeliverableFilter) ([]model.Deliverable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Deliverable
	for _, d := range s.sorted() {
		if (f.Status == "" || d.Status == f.Status) && eq(f.UserID, d.UserID) &&
			eqPtr(f.ProjectID, d.ProjectID) && eqPtr(f.TaskID, d.TaskID) {
			out = append(out, d)
		}
	}
	return window(out, f.Page), nil
}

func (s *DeliverableStore) Update(_ context.Context, d *model.Deliverable) (*model.Deliverable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(d.ID); err != nil {
		return nil, err
	}
	c := *d
	s.put(c.ID, c)
	return &c, nil
}

func (s *DeliverableStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

func (s *DeliverableStore) CountByStatus(_ context.Context, status string, userID *int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.data {
		if d.Status == status && eq(userID, d.UserID) {
			n++
		}
	}
	return n, nil
}

type NoteStore struct{ rows[model.Note] }

func (s *NoteStore) Create(_ context.Context, n *model.Note) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *n
	c.ID = s.nextID()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	s.put(c.ID, c)
	return &c, nil
}

func (s *NoteStore) GetByID(_ context.Context, id int64) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *NoteStore) List(_ context.Context, f model.NoteFilter) ([]model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Note
	for _, n := range s.sorted() {
		if eq(f.UserID, n.UserID) && eqPtr(f.TaskID, n.TaskID) && eqPtr(f.ProjectID, n.ProjectID) &&
			eq(f.Pinned, n.Pinned) && (f.Query == "" || contains(n.Title+" "+n.Body, f.Query)) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pinned && !out[j].Pinned })
	return window(out, f.Page), nil
}

func (s *NoteStore) Update(_ context.Context, n *model.Note) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(n.ID); err != nil {
		return nil, err
	}
	c := *n
	s.put(c.ID, c)
	return &c, nil
}

func (s *NoteStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

type ListItemStore struct{ rows[model.ListItem] }

func (s *ListItemStore) Create(_ context.Context, item *model.ListItem) (*model.ListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *item
	c.ID = s.nextID()
	c.Position = 1
	for _, existing := range s.data {
		if existing.UserID == c.UserID && existing.Position >= c.Position {
			c.Position = existing.Position + 1
		}
	}
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	s.put(c.ID, c)
	return &c, nil
}

func (s *ListItemStore) GetByID(_ context.Context, id int64) (*model.ListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *ListItemStore) List(_ context.Context, f model.ListItemFilter) ([]model.ListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ListItem
	for _, item := range s.sorted() {
		if eq(f.UserID, item.UserID) && eqPtr(f.TaskID, item.TaskID) && eq(f.Done, item.Done) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return window(out, f.Page), nil
}

func (s *ListItemStore) Update(_ context.Context, item *model.ListItem) (*model.ListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(item.ID); err != nil {
		return nil, err
	}
	c := *item
	s.put(c.ID, c)
	return &c, nil
}

func (s *ListItemStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

func (s *ListItemStore) SetPosition(_ context.Context, userID, id int64, position int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.data[id]
	if !ok || item.UserID != userID {
		return false, nil
	}
	item.Position = position
	s.put(id, item)
	return true, nil
}

func (s *ListItemStore) ClearDone(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, item := range s.data {
		if item.UserID == userID && item.Done {
			delete(s.data, id)
			n++
		}
	}
	return n, nil
}

func (s *ListItemStore) CountOpen(_ context.Context, userID *int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.data {
		if !item.Done && eq(userID, item.UserID) {
			n++
		}
	}
	return n, nil
}

type ActivityStore struct {
	rows[model.Activity]
	seen map[string]bool
}

func (s *ActivityStore) Insert(_ context.Context, a *model.Activity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[a.EventID] {
		return false, nil
	}
	s.seen[a.EventID] = true
	c := *a
	c.ID = s.nextID()
	c.CreatedAt = time.Now()
	s.put(c.ID, c)
	return true, nil
}

func (s *ActivityStore) List(_ context.Context, f model.ActivityFilter) ([]model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Activity
	for _, a := range s.sorted() {
		if (f.Entity == "" || a.Entity == f.Entity) && eqPtr(f.ActorID, a.ActorID) {
			out = append(out, a)
		}
	}
	return window(out, f.Page), nil
}

// ReportStore returns canned rows and remembers the last query.
type ReportStore struct {
	Rows     []model.HoursRow
	LastDim  string
	LastFrom *time.Time
	LastTo   *time.Time
}

func (s *ReportStore) Hours(_ context.Context, groupBy string, from, to *time.Time) ([]model.HoursRow, error) {
	s.LastDim, s.LastFrom, s.LastTo = groupBy, from, to
	return s.Rows, nil
}
