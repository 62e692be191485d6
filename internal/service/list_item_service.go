package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/pkg/metrics"
	"interntrack/pkg/rbac"
)

const maxListItemLen = 500

type ListItemInput struct {
	TaskID  *int64  `json:"task_id" form:"task_id"`
	Content *string `json:"content" form:"content"`
	Done    *bool   `json:"done" form:"done"`
}

type ReorderInput struct {
	IDs []int64 `json:"ids" form:"ids"`
}

// ListItemService manages each user's ordered checklist.
type ListItemService struct {
	items  ListItemStore
	tx     TxRunner
	logger *zap.Logger
}

func NewListItemService(items ListItemStore, tx TxRunner, logger *zap.Logger) *ListItemService {
	return &ListItemService{items: items, tx: tx, logger: logger}
}

func (s *ListItemService) List(ctx context.Context, actor model.Actor, f model.ListItemFilter) ([]model.ListItem, error) {
	if !actor.Can(rbac.PermissionWriteList) {
		return nil, ErrForbidden
	}
	f.UserID = &actor.UserID
	list, err := s.items.List(ctx, f)
	return list, storeErr(err)
}

func (s *ListItemService) Get(ctx context.Context, actor model.Actor, id int64) (*model.ListItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if item.UserID != actor.UserID {
		return nil, ErrNotFound
	}
	return item, nil
}

// Create appends a new item at the end of the actor's list.
func (s *ListItemService) Create(ctx context.Context, actor model.Actor, in ListItemInput) (*model.ListItem, error) {
	if !actor.Can(rbac.PermissionWriteList) {
		return nil, ErrForbidden
	}
	item := &model.ListItem{UserID: actor.UserID}
	if in.Content == nil {
		return nil, invalid("content is required")
	}
	if err := applyListItem(item, in); err != nil {
		return nil, err
	}
	created, err := s.items.Create(ctx, item)
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("list_item", "create")
	return created, nil
}

func (s *ListItemService) Update(ctx context.Context, actor model.Actor, id int64, in ListItemInput) (*model.ListItem, error) {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := applyListItem(item, in); err != nil {
		return nil, err
	}
	updated, err := s.items.Update(ctx, item)
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("list_item", "update")
	return updated, nil
}

func (s *ListItemService) Toggle(ctx context.Context, actor model.Actor, id int64) (*model.ListItem, error) {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	item.Done = !item.Done
	updated, err := s.items.Update(ctx, item)
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("list_item", "update")
	return updated, nil
}

func (s *ListItemService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return storeErr(err)
	}
	metrics.IncrementEntityMutation("list_item", "delete")
	return nil
}

// Reorder rewrites positions 1..n in the given order. Any id the actor does
// not own aborts the whole reorder.
func (s *ListItemService) Reorder(ctx context.Context, actor model.Actor, ids []int64) error {
	if !actor.Can(rbac.PermissionWriteList) {
		return ErrForbidden
	}
	if len(ids) == 0 {
		return invalid("ids are required")
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return invalid("duplicate id %d", id)
		}
		seen[id] = true
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for i, id := range ids {
			ok, err := s.items.SetPosition(ctx, actor.UserID, id, i+1)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForbidden
			}
		}
		return nil
	})
	if err != nil {
		return storeErr(err)
	}
	s.logger.Info("List reordered",
		zap.Int64("user_id", actor.UserID),
		zap.Int("count", len(ids)),
	)
	return nil
}

// ClearDone removes the actor's completed items.
func (s *ListItemService) ClearDone(ctx context.Context, actor model.Actor) (int64, error) {
	if !actor.Can(rbac.PermissionWriteList) {
		return 0, ErrForbidden
	}
	n, err := s.items.ClearDone(ctx, actor.UserID)
	if err != nil {
		return 0, storeErr(err)
	}
	metrics.IncrementEntityMutation("list_item", "delete")
	s.logger.Info("Cleared done items",
		zap.Int64("user_id", actor.UserID),
		zap.Int64("count", n),
	)
	return n, nil
}

func applyListItem(item *model.ListItem, in ListItemInput) error {
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return invalid("content is required")
		}
		if len([]rune(content)) > maxListItemLen {
			return invalid("content must be at most %d characters", maxListItemLen)
		}
		item.Content = content
	}
	if in.Done != nil {
		item.Done = *in.Done
	}
	if in.TaskID != nil {
		item.TaskID = nonZero(in.TaskID)
	}
	return nil
}
