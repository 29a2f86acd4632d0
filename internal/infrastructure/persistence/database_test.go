package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	applogger "github.com/dorahyong/buyma/internal/infrastructure/logger"
)

func TestGormConfig_UsesProvidedLogger(t *testing.T) {
	gormLog := applogger.NewGormLogger(zap.NewNop(), gormlogger.Warn)

	cfg := gormConfig(gormLog)

	require.NotNil(t, cfg)
	assert.Same(t, gormLog, cfg.Logger)
	assert.True(t, cfg.SkipDefaultTransaction)
	assert.True(t, cfg.PrepareStmt)
}

func TestGormConfig_SilentDefault(t *testing.T) {
	silent := gormlogger.Default.LogMode(gormlogger.Silent)

	cfg := gormConfig(silent)

	require.NotNil(t, cfg)
	assert.Equal(t, silent, cfg.Logger)
}
