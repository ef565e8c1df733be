package metric

import (
	"context"
	"time"

	"circlekeeper/src-server/model"
	"circlekeeper/src-server/utils"
)

func database(as *utils.AppState) (time.Duration, error) {
	start := time.Now()
	if _, err := as.BunDB.NewSelect().
		Model((*model.FeedToken)(nil)).
		Where("circle_id = ?", "").
		Exists(context.Background()); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
