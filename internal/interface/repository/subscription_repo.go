package repository

import (
	"context"
	"fmt"
	"time"

	"flightstatus-oracle/internal/domain/entity"
	"flightstatus-oracle/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSubscriptionRepository implements the SubscriptionRepository interface
type GormSubscriptionRepository struct {
	db *gorm.DB
}

var _ repository.SubscriptionRepository = (*GormSubscriptionRepository)(nil)

// FlightSubscriptions GORM model for database mapping
type FlightSubscriptions struct {
	ID           uint   `gorm:"primaryKey"`
	Principal    string `gorm:"column:principal;uniqueIndex:idx_subscription_tuple"`
	FlightNumber string `gorm:"column:flight_number;uniqueIndex:idx_subscription_tuple"`
	Carrier      string `gorm:"column:carrier;uniqueIndex:idx_subscription_tuple"`
	Airport      string `gorm:"column:airport;uniqueIndex:idx_subscription_tuple"`
	Subscribed   bool   `gorm:"column:subscribed;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the default table name
func (FlightSubscriptions) TableName() string {
	return "flight_subscriptions"
}

// NewGormSubscriptionRepository migrates the subscription table and returns the repository
func NewGormSubscriptionRepository(db *gorm.DB) (*GormSubscriptionRepository, error) {
	if err := db.AutoMigrate(&FlightSubscriptions{}); err != nil {
		return nil, fmt.Errorf("migrate flight_subscriptions: %w", err)
	}
	return &GormSubscriptionRepository{
		db: db,
	}, nil
}

// Subscribe marks the tuple subscribed, creating the row on first use
func (r *GormSubscriptionRepository) Subscribe(ctx context.Context, sub entity.Subscription) error {
	row := newSubscriptionRow(sub)
	if result := upsertSubscription(r.db.WithContext(ctx), &row); result.Error != nil {
		return fmt.Errorf("upsert subscription: %w", result.Error)
	}
	return nil
}

// UnsubscribeMany clears every given tuple in one transaction
func (r *GormSubscriptionRepository) UnsubscribeMany(ctx context.Context, keys []entity.SubscriptionKey) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, k := range keys {
			result := tx.Model(&FlightSubscriptions{}).
				Where("principal = ? AND flight_number = ? AND carrier = ? AND airport = ?",
					k.Principal, k.FlightNumber, k.Carrier, k.Airport).
				Updates(map[string]interface{}{
					"subscribed": false,
					"updated_at": now,
				})
			if result.Error != nil {
				return fmt.Errorf("unsubscribe %s/%s: %w", k.Principal, k.FlightNumber, result.Error)
			}
		}
		return nil
	})
}

// FindActive returns every subscribed tuple
func (r *GormSubscriptionRepository) FindActive(ctx context.Context) ([]entity.Subscription, error) {
	var rows []FlightSubscriptions
	result := r.db.WithContext(ctx).Where("subscribed = ?", true).Order("id").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("find subscriptions: %w", result.Error)
	}

	// Convert GORM models to domain entities
	subs := make([]entity.Subscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toEntity())
	}
	return subs, nil
}

// newSubscriptionRow maps a subscribe request onto a subscribed row
func newSubscriptionRow(sub entity.Subscription) FlightSubscriptions {
	return FlightSubscriptions{
		Principal:    sub.Principal,
		FlightNumber: sub.FlightNumber,
		Carrier:      sub.Carrier,
		Airport:      sub.Airport,
		Subscribed:   true,
		UpdatedAt:    sub.UpdatedAt,
	}
}

func (row FlightSubscriptions) toEntity() entity.Subscription {
	return entity.Subscription{
		Principal:    row.Principal,
		FlightNumber: row.FlightNumber,
		Carrier:      row.Carrier,
		Airport:      row.Airport,
		Subscribed:   row.Subscribed,
		UpdatedAt:    row.UpdatedAt,
	}
}

// upsertSubscription inserts row or flips the existing tuple back to subscribed
func upsertSubscription(tx *gorm.DB, row *FlightSubscriptions) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "principal"},
			{Name: "flight_number"},
			{Name: "carrier"},
			{Name: "airport"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"subscribed", "updated_at"}),
	}).Create(row)
}
