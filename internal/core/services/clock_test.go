package services_test

import (
	"testing"
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/core/services"
	"github.com/stretchr/testify/assert"
)

func TestCivilDate_TruncatesToUTCMidnight(t *testing.T) {
	in := time.Date(2024, 3, 15, 22, 45, 12, 999, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), services.CivilDate(in))
}

func TestCivilDate_ConvertsZoneBeforeTruncating(t *testing.T) {
	// 23:00 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*60*60)
	in := time.Date(2024, 3, 15, 23, 0, 0, 0, loc)

	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), services.CivilDate(in))
}

func TestCivilDate_MidnightIsStable(t *testing.T) {
	in := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, in, services.CivilDate(in))
}
