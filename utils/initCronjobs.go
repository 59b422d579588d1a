package utils

import (
	"fmt"

	"github.com/Vianpyro/Penny-Game/models"
	"github.com/Vianpyro/Penny-Game/penny/actions"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronCleaner は放置されたルームとユーザーを定期的に掃除する。
// 返した *cron.Cron は呼び出し側で Start / Stop する
func CronCleaner(env *actions.Env, cfg models.Config, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(cfg.SweepSpec, func() {
		evicted := actions.Sweep(env, cfg.RoomIdle(), cfg.PlayerIdle())
		if len(evicted) > 0 {
			logger.Info("放置されたルームを削除しました", zap.Strings("roomIDs", evicted), zap.Int("rooms", env.Registry.Len()))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sweep %q: %w", cfg.SweepSpec, err)
	}
	return c, nil
}
