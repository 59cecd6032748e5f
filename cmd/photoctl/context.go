package main

import (
	"github.com/leca/photo-editor/internal/config"
	"github.com/leca/photo-editor/internal/database"
	"github.com/leca/photo-editor/internal/quota"
)

// commandContext opens the ledger lazily so commands that never touch the
// database (actions, apply) run without one.
type commandContext struct {
	dbFlag *string
	cfg    *config.Config
	db     *database.SQLiteDB
	ledger *quota.Ledger
}

func newCommandContext(dbFlag *string) *commandContext {
	return &commandContext{dbFlag: dbFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if *c.dbFlag != "" {
		cfg.DBPath = *c.dbFlag
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) ensureLedger() (*quota.Ledger, error) {
	if c.ledger != nil {
		return c.ledger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	c.db = db
	c.ledger = quota.New(db, quota.Config{
		FreeDailyLimit:    cfg.FreeDailyLimit,
		PremiumDailyLimit: cfg.PremiumDailyLimit,
		GrantPolicy:       cfg.GrantPolicy,
		Location:          cfg.Location,
	})
	return c.ledger, nil
}

func (c *commandContext) close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db, c.ledger = nil, nil
	return err
}
