package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"iara.com/iarasync/iara/model"
	"iara.com/iarasync/utils"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name     string
		email    *string
		expected string
	}{
		{name: "Plain address", email: utils.Ptr("a@b.com"), expected: "b.com"},
		{name: "No at sign", email: utils.Ptr("noatsign"), expected: ""},
		{name: "Nil", email: nil, expected: ""},
		{name: "Empty", email: utils.Ptr(""), expected: ""},
		{name: "Only first at counts", email: utils.Ptr("a@b@c.com"), expected: "b@c.com"},
		{name: "Trailing at", email: utils.Ptr("a@"), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractDomain(tt.email))
		})
	}
}

func TestMonthlyDuration(t *testing.T) {
	tests := []struct {
		name     string
		interval model.Interval
		expected int
	}{
		{name: "95 days", interval: model.Days(95), expected: 3},
		{name: "29 days", interval: model.Days(29), expected: 0},
		{name: "0 days", interval: model.Days(0), expected: 0},
		{name: "30 days", interval: model.Days(30), expected: 1},
		{name: "1 month", interval: model.Interval{Months: 1}, expected: 1},
		{name: "1 year", interval: model.Interval{Months: 12}, expected: 12},
		{name: "-1 day", interval: model.Days(-1), expected: -1},
		{name: "-30 days", interval: model.Days(-30), expected: -1},
		{name: "-31 days", interval: model.Days(-31), expected: -2},
		{name: "30 days minus an hour", interval: model.Interval{Days: 30, Microseconds: -3_600_000_000}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MonthlyDuration(tt.interval))
		})
	}
}

func TestAccessTypeFor(t *testing.T) {
	tests := []struct {
		name     string
		code     *int
		expected string
	}{
		{name: "1", code: utils.Ptr(1), expected: "Administrador"},
		{name: "2", code: utils.Ptr(2), expected: "Supervisor"},
		{name: "3", code: utils.Ptr(3), expected: "Solicitante"},
		{name: "4", code: utils.Ptr(4), expected: "Visualizador"},
		{name: "0", code: utils.Ptr(0), expected: "Visualizador"},
		{name: "negative", code: utils.Ptr(-1), expected: "Visualizador"},
		{name: "nil", code: nil, expected: "Visualizador"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := AccessTypeFor(tt.code)
			assert.Equal(t, tt.expected, label.Name)
			assert.NotEmpty(t, label.Description)
		})
	}
}

func TestGenderLabel(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{raw: "masc", expected: "Masculino"},
		{raw: "MASC", expected: "Masculino"},
		{raw: " fem ", expected: "Feminino"},
		{raw: "Fem", expected: "Feminino"},
		{raw: "nb", expected: "Outro"},
		{raw: "", expected: "Outro"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, GenderLabel(tt.raw))
		})
	}
}

func TestDeactivatedAt(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	assert.Nil(t, DeactivatedAt(true, nil, now))
	assert.Nil(t, DeactivatedAt(true, &earlier, now), "reactivation clears the timestamp")
	assert.Equal(t, &now, DeactivatedAt(false, nil, now))
	assert.Equal(t, &earlier, DeactivatedAt(false, &earlier, now), "first deactivation is kept")
}

func TestStatusFlags(t *testing.T) {
	assert.True(t, UserActive("Ativo"))
	assert.False(t, UserActive("ativo"))
	assert.False(t, UserActive("Inativo"))

	assert.True(t, FactoryActive(utils.Ptr(true)))
	assert.False(t, FactoryActive(utils.Ptr(false)))
	assert.False(t, FactoryActive(nil))
}

func TestCreatedAt(t *testing.T) {
	in := time.Date(2023, 7, 14, 18, 45, 0, 0, time.FixedZone("BRT", -3*3600))
	assert.Equal(t, time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC), CreatedAt(in))
}
