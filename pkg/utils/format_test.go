package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alphamind/internal/models"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1.08500", FormatPrice(1.085, models.ClassForex))
	assert.Equal(t, "43250.00", FormatPrice(43250, models.ClassIndices))
	assert.Equal(t, "2650.50", FormatPrice(2650.5, models.ClassMetals))
	assert.Equal(t, "67500.1234", FormatPrice(67500.1234, models.ClassCrypto))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+12.50%", FormatPercent(12.5))
	assert.Equal(t, "-3.20%", FormatPercent(-3.2))
	assert.Equal(t, "0.00%", FormatPercent(0))
}

func TestFormatPnL(t *testing.T) {
	assert.Equal(t, "+150.00", FormatPnL(150))
	assert.Equal(t, "-42.50", FormatPnL(-42.5))
	assert.Equal(t, "0.00", FormatPnL(0))
}

func TestFormatRR(t *testing.T) {
	assert.Equal(t, "1:2.5", FormatRR(2.5))
}
