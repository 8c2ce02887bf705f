package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordIssue ставит оплаченный, но не выданный заказ в очередь.
// Повторная запись с тем же transaction id ничего не меняет.
func (s *Storage) RecordIssue(ctx context.Context, issue *FulfillmentIssue) error {
	if issue.Status == "" {
		issue.Status = IssuePending
	}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "transaction_id"}}, DoNothing: true}).
		Create(issue).Error
}

// PendingIssues выбирает заказы, которые ещё можно довыдать. Строки блокируются
// до конца транзакции, параллельный прогон их пропускает.
func (s *Storage) PendingIssues(ctx context.Context, limit int) ([]FulfillmentIssue, error) {
	var issues []FulfillmentIssue
	err := s.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND reason = ?", IssuePending, IssuePersistence).
		Order("id").
		Limit(limit).
		Find(&issues).Error
	return issues, err
}

func (s *Storage) FindIssueByTransaction(ctx context.Context, transactionID string) (FulfillmentIssue, error) {
	var issue FulfillmentIssue
	err := s.DB.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&issue).Error
	return issue, notFound(err)
}

func (s *Storage) ListIssues(ctx context.Context, status string) ([]FulfillmentIssue, error) {
	var issues []FulfillmentIssue
	q := s.DB.WithContext(ctx).Order("id desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&issues).Error
	return issues, err
}

func (s *Storage) ResolveIssue(ctx context.Context, id uint) error {
	return s.setIssue(ctx, id, map[string]interface{}{"status": IssueResolved, "last_error": ""})
}

func (s *Storage) MarkNeedsRefund(ctx context.Context, id uint, lastErr string) error {
	return s.setIssue(ctx, id, map[string]interface{}{"status": IssueNeedsRefund, "last_error": lastErr})
}

// BumpIssue фиксирует неудачную попытку и возвращает их общее число
func (s *Storage) BumpIssue(ctx context.Context, id uint, lastErr string) (int, error) {
	err := s.setIssue(ctx, id, map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastErr,
	})
	if err != nil {
		return 0, err
	}
	var issue FulfillmentIssue
	if err := s.DB.WithContext(ctx).First(&issue, id).Error; err != nil {
		return 0, notFound(err)
	}
	return issue.Attempts, nil
}

func (s *Storage) setIssue(ctx context.Context, id uint, cols map[string]interface{}) error {
	res := s.DB.WithContext(ctx).Model(&FulfillmentIssue{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
