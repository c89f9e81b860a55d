package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/qaura-app/qaura/internal/pkg/cache"
	"github.com/qaura-app/qaura/internal/pkg/database"
)

const (
	checkoutsKey   = "checkout:counters:created"
	webhooksKey    = "checkout:counters:webhooks"
	activationsKey = "checkout:counters:activations"
)

func dayField(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// AddCheckout increments the pending checkout counter for today in Redis
func AddCheckout() error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, checkoutsKey, dayField(time.Now()), 1).Err()
}

// AddWebhook increments the pending webhook delivery counter for today in Redis
func AddWebhook() error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhooksKey, dayField(time.Now()), 1).Err()
}

// AddActivation increments the pending activation counter for today in Redis
func AddActivation() error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, activationsKey, dayField(time.Now()), 1).Err()
}

// FlushAll flushes all pending counters to the daily_metrics table
func FlushAll() error {
	if err := flushHashToColumn(checkoutsKey, "checkouts"); err != nil {
		return err
	}
	if err := flushHashToColumn(webhooksKey, "webhooks"); err != nil {
		return err
	}
	if err := flushHashToColumn(activationsKey, "activations"); err != nil {
		return err
	}
	return nil
}

// flushHashToColumn drains a Redis hash atomically and applies batched increments
// to one column of daily_metrics. Uses RENAME to a temporary key for atomic
// drain without losing in-flight increments.
func flushHashToColumn(redisKey, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	type pair struct {
		date string
		inc  int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{date: k, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].date < pairs[j].date })

	// One upsert per day; the day count stays tiny (flush interval is minutes)
	db := database.GetDB()
	for _, p := range pairs {
		sql := fmt.Sprintf(
			"INSERT INTO daily_metrics (date, %s, created_at, updated_at) VALUES (?, ?, NOW(), NOW()) "+
				"ON DUPLICATE KEY UPDATE %s = %s + VALUES(%s), updated_at = NOW()",
			column, column, column, column)
		if err := db.Exec(sql, p.date, p.inc).Error; err != nil {
			return err
		}
	}
	return nil
}
