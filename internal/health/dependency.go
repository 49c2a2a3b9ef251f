package health

import (
	"context"

	"gorm.io/gorm"
)

type DBChecker struct {
	db *gorm.DB
}

func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "db", Healthy: true}
	if c.db == nil {
		res.Healthy = false
		res.Error = "db not configured"
		return res
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

// Pinger is any remote dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type MediaChecker struct {
	provider string
	pinger   Pinger
}

func NewMediaChecker(provider string, pinger Pinger) Checker {
	if pinger == nil {
		return nil
	}
	return &MediaChecker{provider: provider, pinger: pinger}
}

func (c *MediaChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "media", Healthy: true}
	if c.provider != "" {
		res.Name = "media_" + c.provider
	}
	if err := c.pinger.Ping(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}
