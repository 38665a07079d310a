package kafka_test

import "time"

func nowForTest() time.Time {
	return time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)
}
