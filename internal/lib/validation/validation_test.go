package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/lekomapa/internal/models"
)

func TestTimeOfDay(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "утро", value: "08:00"},
		{name: "полночь", value: "00:00"},
		{name: "конец суток", value: "23:59"},
		{name: "час больше 23", value: "24:00", wantErr: true},
		{name: "без ведущего нуля", value: "8:00", wantErr: true},
		{name: "минуты больше 59", value: "12:60", wantErr: true},
		{name: "пустая строка", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Var(tt.value, TagTimeOfDay)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMedicationInput(t *testing.T) {
	v := New()

	valid := models.MedicationInput{Name: "Paracetamol", Dosage: "500mg", Frequency: models.FrequencyDaily, Times: []string{"08:00"}}
	assert.NoError(t, v.Struct(valid))

	noTimes := valid
	noTimes.Times = nil
	assert.NoError(t, v.Struct(noTimes), "empty times are seeded later")

	tooMany := valid
	tooMany.Times = []string{"01:00", "02:00", "03:00", "04:00", "05:00", "06:00", "07:00"}
	assert.Error(t, v.Struct(tooMany))

	badFrequency := valid
	badFrequency.Frequency = "monthly"
	assert.Error(t, v.Struct(badFrequency))

	badTime := valid
	badTime.Times = []string{"25:00"}
	assert.Error(t, v.Struct(badTime))

	assert.Error(t, v.Struct(models.MedicationInput{}))
}

func TestTakenMark(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(models.TakenMark{Time: "20:00", Taken: true}))
	assert.NoError(t, v.Struct(models.TakenMark{Date: "2026-03-01", Time: "20:00"}))
	assert.Error(t, v.Struct(models.TakenMark{Date: "01-03-2026", Time: "20:00"}))
	assert.Error(t, v.Struct(models.TakenMark{}))
}
